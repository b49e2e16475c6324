package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapvault/widgetsync/internal/api"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/registry"
	"github.com/snapvault/widgetsync/internal/store"
)

type fakeRemind struct {
	mu      sync.Mutex
	items   []models.RemindItem
	errs    []error // consumed one per FetchReminders call
	fetches int
	stale   bool
}

func (f *fakeRemind) FetchReminders(ctx context.Context) ([]models.RemindItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.items, nil
}

func (f *fakeRemind) NeedsRefresh(ctx context.Context, intervalHours int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stale, nil
}

func (f *fakeRemind) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type fakeDownloader struct {
	mu       sync.Mutex
	enqueued []int64
}

func (f *fakeDownloader) Enqueue(ctx context.Context, fileID int64, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, fileID)
}

func (f *fakeDownloader) files() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.enqueued...)
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) Invalidate(instanceID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, instanceID)
}

func setupStates(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.InitDatabase(context.Background(),
		fmt.Sprintf("file:scheduler_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db, logging.Discard())
}

func newTestScheduler(t *testing.T, remind *fakeRemind, states *store.Store,
	reg *registry.Memory, dl *fakeDownloader) *Scheduler {
	t.Helper()
	s := New(remind, states, reg, dl, &recordingNotifier{}, logging.Discard())
	s.backoff = time.Millisecond
	return s
}

func TestRunRefresh_SuccessReplacesItemsAndResetsIndex(t *testing.T) {
	ctx := context.Background()
	states := setupStates(t)

	// Seed an instance mid-browse with a stale error.
	_, err := states.Update(ctx, "w1", func(st models.InstanceState) models.InstanceState {
		st.RemindItems = []models.RemindItem{
			{FileID: 1, ImageURL: "old", LocalImagePath: "/cache/remind_1.jpg"},
			{FileID: 2, ImageURL: "old2"},
		}
		st.CurrentIndex = 1
		st.ErrorMessage = "Could not load data"
		return st
	})
	require.NoError(t, err)

	reg := registry.NewMemory()
	reg.Add("w1")

	remind := &fakeRemind{items: []models.RemindItem{
		{FileID: 1, ImageURL: "https://cdn/1.jpg"},
		{FileID: 3, ImageURL: "https://cdn/3.jpg"},
	}}
	dl := &fakeDownloader{}

	s := newTestScheduler(t, remind, states, reg, dl)
	s.runRefresh(ctx)

	st := states.Get(ctx, "w1")
	require.Len(t, st.RemindItems, 2)
	assert.Equal(t, 0, st.CurrentIndex)
	assert.Empty(t, st.ErrorMessage)
	assert.False(t, st.IsLoading)
	assert.Equal(t, int64(1), st.RemindItems[0].FileID)
	assert.Equal(t, int64(3), st.RemindItems[1].FileID)

	// The surviving item keeps its cached image, the new one starts empty.
	assert.Equal(t, "/cache/remind_1.jpg", st.RemindItems[0].LocalImagePath)
	assert.Empty(t, st.RemindItems[1].LocalImagePath)

	assert.Equal(t, []int64{1, 3}, dl.files())
}

func TestRunRefresh_NetworkFailureKeepsCachedItems(t *testing.T) {
	ctx := context.Background()
	states := setupStates(t)

	_, err := states.Update(ctx, "w1", func(st models.InstanceState) models.InstanceState {
		st.RemindItems = []models.RemindItem{{FileID: 1}}
		st.CurrentIndex = 0
		st.IsLoading = true
		return st
	})
	require.NoError(t, err)

	reg := registry.NewMemory()
	reg.Add("w1")

	netErr := &api.FetchError{Network: true, Message: "dial failed"}
	remind := &fakeRemind{errs: []error{netErr, netErr, netErr}}

	s := newTestScheduler(t, remind, states, reg, &fakeDownloader{})
	s.runRefresh(ctx)

	st := states.Get(ctx, "w1")
	require.Len(t, st.RemindItems, 1)
	assert.Equal(t, MsgNetworkError, st.ErrorMessage)
	assert.False(t, st.IsLoading)
	// Network failures were retried to the bound.
	assert.Equal(t, 3, remind.fetchCount())
}

func TestRunRefresh_NonNetworkFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	states := setupStates(t)
	reg := registry.NewMemory()
	reg.Add("w1")

	remind := &fakeRemind{errs: []error{errors.New("bad payload")}}

	s := newTestScheduler(t, remind, states, reg, &fakeDownloader{})
	s.runRefresh(ctx)

	st := states.Get(ctx, "w1")
	assert.Equal(t, MsgGenericError, st.ErrorMessage)
	assert.Equal(t, 1, remind.fetchCount())
}

func TestRunRefresh_TransientNetworkFailureRecovers(t *testing.T) {
	ctx := context.Background()
	states := setupStates(t)
	reg := registry.NewMemory()
	reg.Add("w1")

	remind := &fakeRemind{
		errs:  []error{&api.FetchError{Network: true, Message: "blip"}},
		items: []models.RemindItem{{FileID: 4}},
	}

	s := newTestScheduler(t, remind, states, reg, &fakeDownloader{})
	s.runRefresh(ctx)

	st := states.Get(ctx, "w1")
	require.Len(t, st.RemindItems, 1)
	assert.Empty(t, st.ErrorMessage)
	assert.Equal(t, 2, remind.fetchCount())
}

func TestEnqueueDownloads_DeduplicatesByFileID(t *testing.T) {
	dl := &fakeDownloader{}
	s := newTestScheduler(t, &fakeRemind{}, setupStates(t), registry.NewMemory(), dl)

	s.enqueueDownloads(context.Background(), []models.RemindItem{
		{FileID: 1, ImageURL: "a"},
		{FileID: 1, ImageURL: "a"},
		{FileID: 2, ImageURL: ""}, // text item, nothing to download
		{FileID: 3, ImageURL: "c"},
	})

	assert.Equal(t, []int64{1, 3}, dl.files())
}

func TestSchedulePeriodic_KeepsExistingCycle(t *testing.T) {
	s := newTestScheduler(t, &fakeRemind{}, setupStates(t), registry.NewMemory(), &fakeDownloader{})
	ctx := context.Background()

	s.SchedulePeriodic(ctx, time.Hour, 1)
	s.mu.Lock()
	first := fmt.Sprintf("%p", s.periodicCancel)
	s.mu.Unlock()
	require.NotEmpty(t, first)

	s.SchedulePeriodic(ctx, time.Minute, 1)
	s.mu.Lock()
	second := fmt.Sprintf("%p", s.periodicCancel)
	s.mu.Unlock()
	assert.Equal(t, first, second)

	s.CancelPeriodic()
	s.Wait()
}

func TestPeriodicLoop_SkipsWhenFresh(t *testing.T) {
	remind := &fakeRemind{stale: false}
	s := newTestScheduler(t, remind, setupStates(t), registry.NewMemory(), &fakeDownloader{})

	s.SchedulePeriodic(context.Background(), 5*time.Millisecond, 1)
	time.Sleep(50 * time.Millisecond)
	s.CancelPeriodic()
	s.Wait()

	assert.Zero(t, remind.fetchCount())
}

func TestPeriodicLoop_FetchesWhenStale(t *testing.T) {
	remind := &fakeRemind{stale: true}
	s := newTestScheduler(t, remind, setupStates(t), registry.NewMemory(), &fakeDownloader{})

	s.SchedulePeriodic(context.Background(), 5*time.Millisecond, 1)
	require.Eventually(t, func() bool { return remind.fetchCount() > 0 },
		time.Second, 5*time.Millisecond)
	s.CancelPeriodic()
	s.Wait()
}
