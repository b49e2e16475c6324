package imagecache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/registry"
	"github.com/snapvault/widgetsync/internal/render"
	"github.com/snapvault/widgetsync/internal/store"
)

const (
	// downloadAttempts bounds the per-job retry loop: the first try plus two
	// retries, for network and decode failures only.
	downloadAttempts = 3

	defaultRetryBackoff = 500 * time.Millisecond

	// maxImageBytes caps a single download.
	maxImageBytes = 32 << 20
)

// Pipeline runs image downloads in the background. At most one download per
// file id is in flight; enqueueing a file id that is already downloading
// replaces its pending request, so only the latest URL is fetched next.
// Completed images are written to the cache and the new local path is fanned
// out to every active widget instance that displays the file.
type Pipeline struct {
	cache    *CacheStore
	client   *http.Client
	states   *store.Store
	registry registry.Registry
	notifier render.Notifier
	logger   logging.Logger
	backoff  time.Duration

	mu      sync.Mutex
	running map[int64]struct{}
	pending map[int64]string
	wg      sync.WaitGroup
}

func NewPipeline(cache *CacheStore, client *http.Client, states *store.Store,
	reg registry.Registry, notifier render.Notifier, logger logging.Logger) *Pipeline {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Pipeline{
		cache:    cache,
		client:   client,
		states:   states,
		registry: reg,
		notifier: notifier,
		logger:   logger.With("component", "imagepipeline"),
		backoff:  defaultRetryBackoff,
		running:  make(map[int64]struct{}),
		pending:  make(map[int64]string),
	}
}

// Enqueue requests a background download for fileID. Empty URLs are ignored
// (text-only items have no image). The call never blocks on the download.
func (p *Pipeline) Enqueue(ctx context.Context, fileID int64, url string) {
	if url == "" {
		return
	}

	p.mu.Lock()
	if _, ok := p.running[fileID]; ok {
		p.pending[fileID] = url
		p.mu.Unlock()
		return
	}
	p.running[fileID] = struct{}{}
	p.mu.Unlock()

	p.wg.Add(1)
	go p.worker(ctx, fileID, url)
}

// Wait blocks until every in-flight download has finished. Used on shutdown
// and in tests.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) worker(ctx context.Context, fileID int64, url string) {
	defer p.wg.Done()

	for {
		if err := p.download(ctx, fileID, url); err != nil {
			p.logger.Warn(ctx, "image download failed", "file", fileID, "url", url, "error", err)
		}

		p.mu.Lock()
		next, ok := p.pending[fileID]
		if !ok {
			delete(p.running, fileID)
			p.mu.Unlock()
			return
		}
		delete(p.pending, fileID)
		p.mu.Unlock()
		url = next
	}
}

// download fetches, processes and caches one image, then patches the state
// documents. Transient network failures and decode failures are retried up
// to downloadAttempts total tries; everything else fails immediately.
func (p *Pipeline) download(ctx context.Context, fileID int64, url string) error {
	var processed []byte

	backoff := retry.WithMaxRetries(downloadAttempts-1, retry.NewExponential(p.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := p.fetch(ctx, url)
		if err != nil {
			return err
		}
		processed, err = Process(data)
		if err != nil {
			// Truncated payloads decode fine as headers but fail here;
			// a fresh fetch may succeed.
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	key := common.CacheFileName(fileID)
	if err := p.cache.Write(key, processed); err != nil {
		return fmt.Errorf("writing cache file %s: %w", key, err)
	}

	p.fanOut(ctx, fileID, p.cache.Path(key))
	return nil
}

func (p *Pipeline) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// Transport failures are all worth one more try.
		return nil, retry.RetryableError(fmt.Errorf("%w: %v", common.ErrNetwork, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: unexpected status %d", common.ErrNetwork, resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, retry.RetryableError(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("%w: reading body: %v", common.ErrNetwork, err))
	}
	return data, nil
}

// fanOut rewrites LocalImagePath for every active instance whose document
// contains the file and invalidates the ones that changed. Per-instance
// failures are logged and do not stop the rest of the fan-out.
func (p *Pipeline) fanOut(ctx context.Context, fileID int64, localPath string) {
	for _, instanceID := range p.registry.Active() {
		changed := false
		_, err := p.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
			for i := range st.RemindItems {
				if st.RemindItems[i].FileID == fileID && st.RemindItems[i].LocalImagePath != localPath {
					st.RemindItems[i].LocalImagePath = localPath
					changed = true
				}
			}
			return st
		})
		if err != nil {
			p.logger.Warn(ctx, "failed to patch local image path",
				"instance", instanceID, "file", fileID, "error", err)
			continue
		}
		if changed {
			p.notifier.Invalidate(instanceID)
		}
	}
}
