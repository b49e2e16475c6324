// Package app wires the widget sync engine together: state store, REST
// client, image pipeline, refresh scheduler, interaction handlers and the
// auto-flip timer, plus the instance lifecycle the host drives.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/snapvault/widgetsync/internal/api"
	"github.com/snapvault/widgetsync/internal/autoflip"
	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/config"
	"github.com/snapvault/widgetsync/internal/filex"
	"github.com/snapvault/widgetsync/internal/handlers"
	"github.com/snapvault/widgetsync/internal/imagecache"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/registry"
	"github.com/snapvault/widgetsync/internal/render"
	"github.com/snapvault/widgetsync/internal/repositories/metadata"
	"github.com/snapvault/widgetsync/internal/scheduler"
	"github.com/snapvault/widgetsync/internal/services"
	"github.com/snapvault/widgetsync/internal/store"
)

// periodicCheckEvery is how often the periodic cycle wakes up to probe
// staleness. Actual fetches are gated by the configured refresh interval.
const periodicCheckEvery = 15 * time.Minute

type App struct {
	config   *config.Config
	logger   logging.Logger
	notifier render.Notifier

	db        *sql.DB
	states    *store.Store
	metadata  metadata.Repository
	registry  *registry.Memory
	pipeline  *imagecache.Pipeline
	scheduler *scheduler.Scheduler
	handlers  *handlers.Handlers
	flip      *autoflip.Timer
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, notifier render.Notifier) (*App, error) {
	if err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := filex.EnsureDir(cfg.CacheDir); err != nil {
		return nil, err
	}

	db, err := store.InitDatabase(ctx, filepath.Join(cfg.DataDir, "widgetsync.db"))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	states := store.New(db, logger)
	metadataRepo := metadata.NewSQLiteRepository(db)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	apiClient := api.NewHTTPClient(cfg.APIBaseURL, cfg.APIToken, httpClient)
	remind := services.NewRemindService(apiClient, metadataRepo, logger)

	reg := registry.NewMemory()
	cache := imagecache.NewCacheStore(cfg.CacheDir)
	pipeline := imagecache.NewPipeline(cache, httpClient, states, reg, notifier, logger)
	sched := scheduler.New(remind, states, reg, pipeline, notifier, logger)
	hnd := handlers.New(states, apiClient, sched, notifier, logger)

	alarm := autoflip.NewClockAlarm(nil, time.Second)
	flip := autoflip.NewTimer(states, reg, alarm, notifier, cfg.FlipInterval, logger)

	// Host-visible bookkeeping of the configured interval.
	interval := []byte(strconv.Itoa(cfg.RefreshIntervalHours))
	if err := metadataRepo.Set(ctx, common.MetaUpdateIntervalHr, interval); err != nil {
		logger.Warn(ctx, "failed to record refresh interval", "error", err)
	}

	return &App{
		config:    cfg,
		logger:    logger,
		notifier:  notifier,
		db:        db,
		states:    states,
		metadata:  metadataRepo,
		registry:  reg,
		pipeline:  pipeline,
		scheduler: sched,
		handlers:  hnd,
		flip:      flip,
	}, nil
}

// Handlers exposes the tap actions for the host to bind to its views.
func (app *App) Handlers() *handlers.Handlers {
	return app.handlers
}

// InstanceEnabled registers a new widget instance and makes sure the
// background machinery is running: periodic refresh (kept if already
// scheduled), an immediate fetch so the instance has data soon, and the
// auto-flip cadence.
func (app *App) InstanceEnabled(ctx context.Context, instanceID string) {
	app.registry.Add(instanceID)
	app.logger.Info(ctx, "instance enabled", "instance", instanceID)

	app.scheduler.SchedulePeriodic(ctx, periodicCheckEvery, app.config.RefreshIntervalHours)
	app.scheduler.ScheduleImmediate(ctx)
	app.flip.Start(ctx)
	app.notifier.Invalidate(instanceID)
}

// InstanceDisabled removes an instance and its state document. When the last
// instance goes away, the periodic cycle stops (the auto-flip timer idles by
// itself on the next tick).
func (app *App) InstanceDisabled(ctx context.Context, instanceID string) {
	app.registry.Remove(instanceID)

	if err := app.states.Delete(ctx, instanceID); err != nil {
		app.logger.Warn(ctx, "failed to delete instance state", "instance", instanceID, "error", err)
	}
	app.logger.Info(ctx, "instance disabled", "instance", instanceID)

	if len(app.registry.Active()) == 0 {
		app.scheduler.CancelPeriodic()
		app.flip.Stop()
		app.logger.Info(ctx, "last instance removed, background work stopped")
	}
}

// RenderInstance resolves the current visual state of one instance, ready
// for the host to draw.
func (app *App) RenderInstance(ctx context.Context, instanceID string) render.State {
	return render.Render(app.states.Get(ctx, instanceID))
}

// RequestRefresh is the host's manual refresh entry point for one instance.
func (app *App) RequestRefresh(ctx context.Context, instanceID string) error {
	return app.handlers.Refresh(ctx, instanceID)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until the context is cancelled or a termination signal
// arrives, then shuts the engine down.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "starting widget sync engine")
	app.initSignalHandler(cancelFunc)

	<-ctx.Done()
	app.Close(context.Background())
}

// Close stops background work, drains in-flight jobs and closes the store.
func (app *App) Close(ctx context.Context) {
	app.scheduler.CancelPeriodic()
	app.flip.Stop()
	app.scheduler.Wait()
	app.pipeline.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "failed to close state database", "error", err)
	}
	app.logger.Info(ctx, "widget sync engine stopped")
}
