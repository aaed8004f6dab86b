// Package kv provides the key-value backends that hold persisted client state.
package kv

import "context"

// Store is a flat key-value store without transactions. Writes to the same
// key are last-write-wins.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func validKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
