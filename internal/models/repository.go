package models

import "context"

// Store is the shared key-value store. It offers no transactions: concurrent
// writers to the same key race and the last write wins.
type Store interface {
	// Get returns the raw value under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key, replacing whatever was there.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases the underlying connections.
	Close() error
}

// CompareAndSwapStore is implemented by stores with an atomic conditional write.
type CompareAndSwapStore interface {
	Store
	// CompareAndSwap replaces the value under key with new only if it currently equals old.
	// A nil old means the key must be absent; a nil new deletes the key.
	// It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
}
