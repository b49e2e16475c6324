// Package metadata persists small key/value bookkeeping records, such as the
// time of the last successful reminder fetch.
package metadata

import "context"

// Repository is a plain key/value store. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
