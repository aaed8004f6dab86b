// Package tracking produces daily step records from a device sensor, falling
// back to synthetic data when no reliable sensor exists.
package tracking

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrSensorUnavailable is returned by sensors that cannot serve a request.
var ErrSensorUnavailable = errors.New("step sensor unavailable")

// Provider yields step counts.
type Provider interface {
	// StepCount returns the steps taken in [start, end).
	StepCount(ctx context.Context, start, end time.Time) (int, error)
	// Watch calls emit with the cumulative step count since the watch
	// began, every time it changes. stop releases the watch; it may be
	// called more than once.
	Watch(ctx context.Context, emit func(steps int)) (stop func(), err error)
}

// Sensor is a Provider backed by device hardware.
type Sensor interface {
	Provider
	// IsAvailable reports whether the device can currently count steps.
	IsAvailable(ctx context.Context) (bool, error)
}

// Synthetic ranges, half-open.
const (
	seedMin       = 500
	seedMax       = 1500
	incrementMin  = 30
	incrementMax  = 150
	todayMin      = 1000
	todayMax      = 3000
	defaultPeriod = time.Minute
)

// SyntheticOption applies a configuration option to the SyntheticProvider.
type SyntheticOption func(*SyntheticProvider)

// WithInterval sets how often the synthetic watch adds steps.
func WithInterval(d time.Duration) SyntheticOption {
	return func(p *SyntheticProvider) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithSeed makes the synthetic sequence reproducible.
func WithSeed(seed int64) SyntheticOption {
	return func(p *SyntheticProvider) {
		p.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data only
	}
}

// SyntheticProvider generates plausible pseudo-random walking data.
type SyntheticProvider struct {
	interval time.Duration
	mu       sync.Mutex
	rng      *rand.Rand
}

// NewSyntheticProvider creates a synthetic provider.
func NewSyntheticProvider(opts ...SyntheticOption) *SyntheticProvider {
	p := &SyntheticProvider{interval: defaultPeriod}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // synthetic data only
	}
	return p
}

// between returns a value in [lo, hi).
func (p *SyntheticProvider) between(lo, hi int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rng.Intn(hi-lo)
}

// StepCount returns a count in [1000, 3000) regardless of the range.
func (p *SyntheticProvider) StepCount(ctx context.Context, _, _ time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.between(todayMin, todayMax), nil
}

// Watch emits a seed in [500, 1500) immediately and then adds [30, 150)
// steps every interval until stopped.
func (p *SyntheticProvider) Watch(ctx context.Context, emit func(steps int)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	steps := p.between(seedMin, seedMax)
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		emit(steps)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				steps += p.between(incrementMin, incrementMax)
				emit(steps)
			}
		}
	}()
	return cancel, nil
}
