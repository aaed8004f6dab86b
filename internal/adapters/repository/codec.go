package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kv "github.com/okian/stride/internal/adapters/kv"
	"github.com/okian/stride/pkg/metrics"
)

// load decodes the JSON value under key into v. found is false when the key
// does not exist.
func load(ctx context.Context, store kv.Store, key string, v any) (found bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageLatency("get", msSince(start)) }()

	b, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return true, nil
}

func save(ctx context.Context, store kv.Store, key string, v any) error {
	start := time.Now()
	defer func() { metrics.RecordStorageLatency("set", msSince(start)) }()

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, b)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
