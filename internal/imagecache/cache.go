// Package imagecache downloads widget images, downscales them to widget
// resolution and keeps them in a disk-backed cache keyed by file id.
package imagecache

import (
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// CacheStore is the disk cache for processed widget images. Keys are the
// names produced by common.CacheFileName, files live flat under the base
// directory so their absolute paths can be handed to the host renderer.
type CacheStore struct {
	d        *diskv.Diskv
	basePath string
}

func NewCacheStore(basePath string) *CacheStore {
	return &CacheStore{
		d: diskv.New(diskv.Options{
			BasePath:  basePath,
			Transform: func(string) []string { return []string{} },
			// Write to a temp file and rename into place, so an
			// interrupted write never clobbers a good cached image.
			TempDir:      filepath.Join(basePath, "tmp"),
			CacheSizeMax: 8 * 1024 * 1024,
		}),
		basePath: basePath,
	}
}

// Write persists an encoded image under key. Empty payloads are rejected so
// a truncated pipeline result can never shadow a good cached file.
func (c *CacheStore) Write(key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("refusing to cache empty image for %q", key)
	}
	return c.d.Write(key, data)
}

func (c *CacheStore) Read(key string) ([]byte, error) {
	return c.d.Read(key)
}

func (c *CacheStore) Has(key string) bool {
	return c.d.Has(key)
}

func (c *CacheStore) Erase(key string) error {
	return c.d.Erase(key)
}

// Path returns the absolute location of a cached file. The file may not
// exist yet; callers check Has first when that matters.
func (c *CacheStore) Path(key string) string {
	return filepath.Join(c.basePath, key)
}
