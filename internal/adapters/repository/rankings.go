package repository

import (
	"context"
	"fmt"

	kv "github.com/okian/stride/internal/adapters/kv"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/metrics"
)

// RankingRepository stores the leaderboard as one JSON array under
// USER_RANKINGS. Ordering is owned by the caller.
type RankingRepository struct {
	base
	store kv.Store
}

// NewRankingRepository creates a ranking repository over store.
func NewRankingRepository(store kv.Store, opts ...Option) *RankingRepository {
	return &RankingRepository{base: newBase("ranking-repository", opts), store: store}
}

// Load returns the stored list. found is false when nothing has been stored.
func (r *RankingRepository) Load(ctx context.Context) (entries []model.RankingEntry, found bool, err error) {
	found, err = load(ctx, r.store, UserRankingsKey, &entries)
	if err != nil {
		metrics.RecordStorageError("rankings_load")
		return nil, false, fmt.Errorf("load rankings: %w", err)
	}
	if entries == nil {
		entries = []model.RankingEntry{}
	}
	return entries, found, nil
}

// Save overwrites the stored list.
func (r *RankingRepository) Save(ctx context.Context, entries []model.RankingEntry) error {
	if entries == nil {
		entries = []model.RankingEntry{}
	}
	if err := save(ctx, r.store, UserRankingsKey, entries); err != nil {
		metrics.RecordStorageError("rankings_save")
		return fmt.Errorf("save rankings: %w", err)
	}
	return nil
}
