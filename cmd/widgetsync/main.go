package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/snapvault/widgetsync/internal/app"
	"github.com/snapvault/widgetsync/internal/buildinfo"
	"github.com/snapvault/widgetsync/internal/config"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/tagfit"
)

// logNotifier stands in for the host renderer: every invalidation re-renders
// the instance and logs what the widget would now show.
type logNotifier struct {
	app    *app.App
	logger logging.Logger
}

// measure approximates the host's text measurement with a fixed per-rune
// width.
func measure(text string) float64 {
	return float64(len([]rune(text))) * 9
}

func (n *logNotifier) Invalidate(instanceID string) {
	if n.app == nil {
		return
	}
	ctx := context.Background()
	view := n.app.RenderInstance(ctx, instanceID)

	args := []any{"instance", instanceID, "view", view.Kind.String()}
	if view.Item != nil {
		visible := tagfit.ComputeVisibleTags(view.Item.Tags, tagfit.DefaultMaxWidth, measure)
		args = append(args, "file", view.Item.FileID, "image", view.Item.LocalImagePath, "tags", visible)
	}
	if view.Banner != "" {
		args = append(args, "banner", view.Banner)
	}
	n.logger.Info(ctx, "widget invalidated", args...)
}

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	notifier := &logNotifier{logger: logger}

	application, err := app.NewApp(ctx, cfg, logger, notifier)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	notifier.app = application

	// Simulate the host placing one widget on the home screen.
	application.InstanceEnabled(ctx, "home-1")

	application.Run(ctx)
}
