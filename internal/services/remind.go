// Package services contains the use-case layer between the REST client and
// the engine's jobs.
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/snapvault/widgetsync/internal/api"
	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/repositories/metadata"
)

// RemindService pulls the resurfacing item list from the backend and keeps
// staleness bookkeeping (last fetch time, cached item count) up to date.
type RemindService interface {
	FetchReminders(ctx context.Context) ([]models.RemindItem, error)
	NeedsRefresh(ctx context.Context, intervalHours int) (bool, error)
}

type remindService struct {
	client   api.Client
	metadata metadata.Repository
	logger   logging.Logger
	now      func() time.Time
}

func NewRemindService(client api.Client, metadataRepo metadata.Repository, logger logging.Logger) RemindService {
	return &remindService{
		client:   client,
		metadata: metadataRepo,
		logger:   logger.With("component", "remindservice"),
		now:      time.Now,
	}
}

// FetchReminders calls the backend and maps each record to a RemindItem with
// no local image yet and the full tag list. On success it records the fetch
// time and item count; bookkeeping failures are logged, not propagated, so a
// good fetch is never turned into an error.
func (s *remindService) FetchReminders(ctx context.Context) ([]models.RemindItem, error) {
	records, err := s.client.FetchReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reminders: %w", err)
	}

	items := make([]models.RemindItem, 0, len(records))
	for _, rec := range records {
		items = append(items, models.RemindItem{
			FileID:     rec.ID,
			ImageURL:   rec.Src,
			IsFavorite: rec.Favorite,
			Tags:       rec.Tags,
			Type:       models.ContentType(rec.Type),
			Context:    rec.Context,
		})
	}

	nowMillis := s.now().UnixMilli()
	if err := s.metadata.Set(ctx, common.MetaLastUpdateTime, []byte(strconv.FormatInt(nowMillis, 10))); err != nil {
		s.logger.Warn(ctx, "failed to record last fetch time", "error", err)
	}
	if err := s.metadata.Set(ctx, common.MetaCachedItemCount, []byte(strconv.Itoa(len(items)))); err != nil {
		s.logger.Warn(ctx, "failed to record cached item count", "error", err)
	}

	s.logger.Info(ctx, "fetched reminders", "count", len(items))
	return items, nil
}

// NeedsRefresh reports whether the last successful fetch is at least
// intervalHours old, at hour granularity (floor division). An instance that
// never fetched needs a refresh.
func (s *remindService) NeedsRefresh(ctx context.Context, intervalHours int) (bool, error) {
	raw, err := s.metadata.Get(ctx, common.MetaLastUpdateTime)
	if err != nil {
		return false, fmt.Errorf("reading last fetch time: %w", err)
	}
	if raw == nil {
		return true, nil
	}

	lastMillis, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// Unreadable bookkeeping behaves like no bookkeeping.
		s.logger.Warn(ctx, "unreadable last fetch time, forcing refresh", "value", string(raw))
		return true, nil
	}

	return ElapsedHoursAtLeast(s.now(), time.UnixMilli(lastMillis), intervalHours), nil
}

// ElapsedHoursAtLeast reports whether floor((now-last)/1h) >= intervalHours.
func ElapsedHoursAtLeast(now, last time.Time, intervalHours int) bool {
	elapsedHours := now.Sub(last) / time.Hour
	return elapsedHours >= time.Duration(intervalHours)
}
