// Package repository persists step history, rankings and user profiles in a
// key-value store.
package repository

import (
	"math/rand"
	"time"

	"github.com/okian/stride/pkg/logger"
)

// Storage keys.
const (
	StepDataKey     = "STEP_DATA"
	UserRankingsKey = "USER_RANKINGS"
	UserDataKey     = "USER_DATA"
)

// Option applies a configuration option to a repository.
type Option func(*base)

// base holds the collaborators shared by every repository.
type base struct {
	logger logger.Logger
	now    func() time.Time
	rng    *rand.Rand
}

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(l logger.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithRand sets the random source used for mock data.
func WithRand(r *rand.Rand) Option {
	return func(b *base) {
		if r != nil {
			b.rng = r
		}
	}
}

func newBase(name string, opts []Option) base {
	b := base{now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named(name)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // mock data only
	}
	return b
}
