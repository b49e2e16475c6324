// Package handlers implements the widget's tap actions: browsing between
// items, toggling a favorite and requesting a manual refresh.
package handlers

import (
	"context"
	"fmt"

	"github.com/snapvault/widgetsync/internal/api"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/render"
	"github.com/snapvault/widgetsync/internal/store"
)

// Refresher starts a background refresh job.
type Refresher interface {
	ScheduleImmediate(ctx context.Context)
}

// Handlers processes user interactions against one widget instance at a
// time. All state changes go through the store's serialized Update, so a
// burst of taps on the same instance applies in order.
type Handlers struct {
	states    *store.Store
	client    api.Client
	refresher Refresher
	notifier  render.Notifier
	logger    logging.Logger
}

func New(states *store.Store, client api.Client, refresher Refresher,
	notifier render.Notifier, logger logging.Logger) *Handlers {
	return &Handlers{
		states:    states,
		client:    client,
		refresher: refresher,
		notifier:  notifier,
		logger:    logger.With("component", "handlers"),
	}
}

// NavigateNext advances to the following item, wrapping from the last back
// to the first. With no items the document is untouched.
func (h *Handlers) NavigateNext(ctx context.Context, instanceID string) error {
	return h.navigate(ctx, instanceID, +1)
}

// NavigatePrevious steps back one item, wrapping from the first to the last.
func (h *Handlers) NavigatePrevious(ctx context.Context, instanceID string) error {
	return h.navigate(ctx, instanceID, -1)
}

func (h *Handlers) navigate(ctx context.Context, instanceID string, step int) error {
	changed := false
	_, err := h.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
		n := len(st.RemindItems)
		if n == 0 {
			return st
		}
		st.CurrentIndex = ((st.CurrentIndex+step)%n + n) % n
		changed = true
		return st
	})
	if err != nil {
		return fmt.Errorf("navigating instance %s: %w", instanceID, err)
	}
	if changed {
		h.notifier.Invalidate(instanceID)
	}
	return nil
}

// ToggleFavorite flips the favorite flag of the item currently shown. The
// flag only changes once the backend confirms the mutation; any failure
// leaves the document exactly as it was.
func (h *Handlers) ToggleFavorite(ctx context.Context, instanceID string) error {
	var toggleErr error
	changed := false

	_, err := h.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
		item, ok := st.CurrentItem()
		if !ok {
			return st
		}

		confirmed, err := h.client.ToggleFavorite(ctx, item.FileID, !item.IsFavorite)
		if err != nil {
			toggleErr = err
			return st
		}

		st.RemindItems[st.CurrentIndex].IsFavorite = confirmed
		changed = true
		return st
	})
	if err != nil {
		return fmt.Errorf("toggling favorite on %s: %w", instanceID, err)
	}
	if toggleErr != nil {
		h.logger.Warn(ctx, "favorite toggle rejected", "instance", instanceID, "error", toggleErr)
		return toggleErr
	}
	if changed {
		h.notifier.Invalidate(instanceID)
	}
	return nil
}

// Refresh flips the instance into its loading view and kicks off an
// immediate background refresh.
func (h *Handlers) Refresh(ctx context.Context, instanceID string) error {
	_, err := h.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
		st.IsLoading = true
		st.ErrorMessage = ""
		return st
	})
	if err != nil {
		return fmt.Errorf("marking instance %s loading: %w", instanceID, err)
	}
	h.notifier.Invalidate(instanceID)

	h.refresher.ScheduleImmediate(ctx)
	return nil
}
