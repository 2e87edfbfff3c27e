// Package store provides the durable key-value store and the blob backends
// it persists snapshots to.
package store

import "context"

// Backend is an atomic load/save primitive for one named JSON blob.
// Implementations must never expose a partially written blob to Load.
type Backend interface {
	// Load returns the last saved blob, or nil if nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)

	// Save atomically replaces the blob.
	Save(ctx context.Context, data []byte) error

	// Close releases any resources held by the backend.
	Close() error
}
