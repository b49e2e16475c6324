// Package scheduler runs the background refresh jobs: one-shot refreshes on
// demand and a periodic cycle that re-fetches once the cached data is stale.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/snapvault/widgetsync/internal/api"
	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/registry"
	"github.com/snapvault/widgetsync/internal/render"
	"github.com/snapvault/widgetsync/internal/services"
	"github.com/snapvault/widgetsync/internal/store"
)

// User-facing error banners. Network problems get the actionable message,
// everything else the generic one.
const (
	MsgNetworkError = "Check your network connection"
	MsgGenericError = "Could not load data"
)

const (
	// fetchAttempts bounds the refresh fetch: first try plus two retries,
	// network failures only.
	fetchAttempts = 3

	defaultFetchBackoff = 2 * time.Second
)

// Downloader accepts background image download requests.
type Downloader interface {
	Enqueue(ctx context.Context, fileID int64, url string)
}

// Scheduler coordinates refresh jobs across all active widget instances.
// At most one periodic cycle exists at a time; scheduling a second one keeps
// the existing cycle (the host may ask redundantly on every boot).
type Scheduler struct {
	remind   services.RemindService
	states   *store.Store
	registry registry.Registry
	images   Downloader
	notifier render.Notifier
	logger   logging.Logger
	backoff  time.Duration

	mu             sync.Mutex
	periodicCancel context.CancelFunc
	wg             sync.WaitGroup
}

func New(remind services.RemindService, states *store.Store, reg registry.Registry,
	images Downloader, notifier render.Notifier, logger logging.Logger) *Scheduler {
	return &Scheduler{
		remind:   remind,
		states:   states,
		registry: reg,
		images:   images,
		notifier: notifier,
		logger:   logger.With("component", "scheduler"),
		backoff:  defaultFetchBackoff,
	}
}

// ScheduleImmediate starts a refresh job now, without waiting for the
// periodic cycle. The call returns as soon as the job is spawned.
func (s *Scheduler) ScheduleImmediate(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRefresh(ctx)
	}()
}

// SchedulePeriodic starts the recurring refresh cycle, ticking every `every`
// and fetching only when the data is at least intervalHours stale. If a
// cycle is already running it is kept and the call is a no-op.
func (s *Scheduler) SchedulePeriodic(ctx context.Context, every time.Duration, intervalHours int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.periodicCancel != nil {
		s.logger.Debug(ctx, "periodic refresh already scheduled, keeping existing")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.periodicCancel = cancel

	s.wg.Add(1)
	go s.periodicLoop(ctx, every, intervalHours)
	s.logger.Info(ctx, "periodic refresh scheduled",
		"work", common.RefreshJobName, "every", every, "staleAfterHours", intervalHours)
}

// CancelPeriodic stops the recurring cycle if one is running.
func (s *Scheduler) CancelPeriodic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.periodicCancel != nil {
		s.periodicCancel()
		s.periodicCancel = nil
	}
}

// Wait blocks until all spawned jobs have finished. Call after cancelling.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) periodicLoop(ctx context.Context, every time.Duration, intervalHours int) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := s.remind.NeedsRefresh(ctx, intervalHours)
			if err != nil {
				s.logger.Warn(ctx, "staleness check failed", "error", err)
				continue
			}
			if !stale {
				s.logger.Debug(ctx, "data still fresh, skipping refresh")
				continue
			}
			s.runRefresh(ctx)
		}
	}
}

// runRefresh performs one full refresh: fetch the item list, then fan the
// result out to every active instance. Failures never discard cached items;
// instances keep what they have plus an error banner.
func (s *Scheduler) runRefresh(ctx context.Context) {
	jobID := uuid.NewString()
	log := s.logger.With("job", jobID)

	items, err := s.fetchWithRetry(ctx)
	if err != nil {
		log.Error(ctx, "refresh fetch failed", "error", err)
		s.fanOutFailure(ctx, err)
		return
	}

	log.Info(ctx, "refresh fetch succeeded", "items", len(items))
	s.fanOutSuccess(ctx, items)
	s.enqueueDownloads(ctx, items)
}

func (s *Scheduler) fetchWithRetry(ctx context.Context) ([]models.RemindItem, error) {
	var items []models.RemindItem

	backoff := retry.WithMaxRetries(fetchAttempts-1, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		items, err = s.remind.FetchReminders(ctx)
		if err != nil {
			if api.IsNetworkError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// fanOutSuccess replaces each active instance's item list with the fresh
// one, resets the index to the first item and clears loading and error
// state. Cached image paths survive for items that are still present.
func (s *Scheduler) fanOutSuccess(ctx context.Context, items []models.RemindItem) {
	now := time.Now().UnixMilli()

	for _, instanceID := range s.registry.Active() {
		_, err := s.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
			prevPaths := make(map[int64]string, len(st.RemindItems))
			for _, item := range st.RemindItems {
				if item.LocalImagePath != "" {
					prevPaths[item.FileID] = item.LocalImagePath
				}
			}

			fresh := make([]models.RemindItem, len(items))
			copy(fresh, items)
			for i := range fresh {
				if path, ok := prevPaths[fresh[i].FileID]; ok {
					fresh[i].LocalImagePath = path
				}
			}

			st.RemindItems = fresh
			st.CurrentIndex = 0
			st.IsLoading = false
			st.ErrorMessage = ""
			st.LastUpdated = now
			return st
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to store refreshed items", "instance", instanceID, "error", err)
			continue
		}
		s.notifier.Invalidate(instanceID)
	}
}

// fanOutFailure keeps whatever each instance already shows and adds the
// error banner on top (graceful degradation).
func (s *Scheduler) fanOutFailure(ctx context.Context, fetchErr error) {
	banner := MsgGenericError
	if api.IsNetworkError(fetchErr) {
		banner = MsgNetworkError
	}

	for _, instanceID := range s.registry.Active() {
		_, err := s.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
			st.IsLoading = false
			st.ErrorMessage = banner
			return st
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to store refresh error", "instance", instanceID, "error", err)
			continue
		}
		s.notifier.Invalidate(instanceID)
	}
}

// enqueueDownloads requests one download per distinct image, not one per
// instance that shows it.
func (s *Scheduler) enqueueDownloads(ctx context.Context, items []models.RemindItem) {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.ImageURL == "" {
			continue
		}
		if _, ok := seen[item.FileID]; ok {
			continue
		}
		seen[item.FileID] = struct{}{}
		s.images.Enqueue(ctx, item.FileID, item.ImageURL)
	}
}
