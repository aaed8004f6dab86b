// Package ranking keeps the step leaderboard ordered by step count.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

const demoSteps = 8567

// ErrNegativeSteps rejects a step count below zero.
var ErrNegativeSteps = errors.New("negative step count")

// Store persists the ordered leaderboard.
type Store interface {
	Load(ctx context.Context) (entries []model.RankingEntry, found bool, err error)
	Save(ctx context.Context, entries []model.RankingEntry) error
}

// Profiles gives access to the signed-in user's profile.
type Profiles interface {
	CurrentUser(ctx context.Context) (model.User, bool)
	Update(ctx context.Context, patch model.UserPatch) (model.User, model.Result)
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithSeeder selects how the first ranking is built.
func WithSeeder(s Seeder) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.seeder = s
		}
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// Aggregator owns the leaderboard. Each read-modify-write of the stored list
// runs under one lock, so concurrent updates in this process do not lose
// writes.
type Aggregator struct {
	store    Store
	profiles Profiles
	seeder   Seeder
	logger   logger.Logger
	mu       sync.Mutex
}

// NewAggregator creates an aggregator over store.
func NewAggregator(store Store, profiles Profiles, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, profiles: profiles}
	for _, opt := range opts {
		opt(a)
	}
	if a.seeder == nil {
		a.seeder = NewCurrentUserOnly()
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("ranking")
	}
	return a
}

func (a *Aggregator) fail(ctx context.Context, op string, err error) model.Result {
	a.logger.Error(ctx, "ranking operation failed", logger.String("op", op), logger.Error(err))
	metrics.RecordErrorByType("ranking_"+op, "medium")
	return model.Failure(fmt.Errorf("%s: %w", op, err))
}

// GetUserRankings returns the stored leaderboard, seeding and storing it on
// first use.
func (a *Aggregator) GetUserRankings(ctx context.Context) ([]model.RankingEntry, model.Result) {
	user, ok := a.profiles.CurrentUser(ctx)
	if !ok {
		return []model.RankingEntry{}, model.Failure(fmt.Errorf("get rankings: %w", model.ErrNoCurrentUser))
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, res := a.loadOrSeed(ctx, user)
	return model.CloneRankings(entries), res
}

func (a *Aggregator) loadOrSeed(ctx context.Context, user model.User) ([]model.RankingEntry, model.Result) {
	entries, found, err := a.store.Load(ctx)
	if err != nil {
		return []model.RankingEntry{}, a.fail(ctx, "load", err)
	}
	if found {
		metrics.UpdateRankingEntries(len(entries))
		return entries, model.Success()
	}
	entries = Rank(a.seeder.Seed(user))
	if err := a.store.Save(ctx, entries); err != nil {
		return entries, a.fail(ctx, "seed", err)
	}
	metrics.RecordRankingUpdate(len(entries))
	return entries, model.Success()
}

// UpdateSteps records steps for the current user, then re-sorts the
// leaderboard and renumbers every position.
func (a *Aggregator) UpdateSteps(ctx context.Context, steps int) model.Result {
	if steps < 0 {
		return model.Failure(fmt.Errorf("update steps: %w: %d", ErrNegativeSteps, steps))
	}
	user, res := a.profiles.Update(ctx, model.UserPatch{Steps: &steps})
	if res.Is(model.ErrNoCurrentUser) {
		return model.Failure(fmt.Errorf("update steps: %w", model.ErrNoCurrentUser))
	}
	if !res.OK {
		a.logger.Warn(ctx, "profile steps not saved", logger.Error(res.Err))
		var ok bool
		if user, ok = a.profiles.CurrentUser(ctx); !ok {
			return model.Failure(fmt.Errorf("update steps: %w", model.ErrNoCurrentUser))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entries, res := a.loadOrSeed(ctx, user)
	if !res.OK {
		return res
	}
	entries = model.CloneRankings(entries)
	idx := -1
	for i := range entries {
		if entries[i].ID == user.ID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		entries[idx].Steps = steps
	} else {
		entries = append(entries, model.RankingEntry{
			ID:           user.ID,
			Name:         user.Name,
			Steps:        steps,
			ProfileImage: user.ProfileImage,
		})
	}
	entries = Rank(entries)
	if err := a.store.Save(ctx, entries); err != nil {
		return a.fail(ctx, "update", err)
	}
	metrics.RecordRankingUpdate(len(entries))
	return model.Success()
}

// GenerateDemoData replaces the leaderboard with the current user alone at
// a fixed demo step count.
func (a *Aggregator) GenerateDemoData(ctx context.Context) model.Result {
	user, ok := a.profiles.CurrentUser(ctx)
	if !ok {
		return model.Failure(fmt.Errorf("generate demo rankings: %w", model.ErrNoCurrentUser))
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := []model.RankingEntry{{
		ID:           user.ID,
		Name:         user.Name,
		Steps:        demoSteps,
		Position:     1,
		ProfileImage: user.ProfileImage,
	}}
	if err := a.store.Save(ctx, entries); err != nil {
		return a.fail(ctx, "demo", err)
	}
	metrics.RecordRankingUpdate(len(entries))
	return model.Success()
}

// Rank stable-sorts entries by steps descending and sets Position to index+1.
// Entries with equal steps keep their relative order.
func Rank(entries []model.RankingEntry) []model.RankingEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Steps > entries[j].Steps
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}
