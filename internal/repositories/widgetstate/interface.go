// Package widgetstate persists raw per-instance state documents.
package widgetstate

import "context"

// Repository stores one opaque JSON document per widget instance id.
// Get returns (nil, nil) when no document exists for the id.
type Repository interface {
	Get(ctx context.Context, instanceID string) ([]byte, error)
	Save(ctx context.Context, instanceID string, document []byte) error
	Delete(ctx context.Context, instanceID string) error
}
