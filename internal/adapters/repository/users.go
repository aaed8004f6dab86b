package repository

import (
	"context"
	"fmt"
	"sync"

	kv "github.com/okian/stride/internal/adapters/kv"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/metrics"
)

// UserRepository stores profiles keyed by user id under USER_DATA.
type UserRepository struct {
	base
	store kv.Store
	mu    sync.Mutex
}

// NewUserRepository creates a user repository over store.
func NewUserRepository(store kv.Store, opts ...Option) *UserRepository {
	return &UserRepository{base: newBase("user-repository", opts), store: store}
}

func (r *UserRepository) all(ctx context.Context) (map[string]model.User, error) {
	users := map[string]model.User{}
	if _, err := load(ctx, r.store, UserDataKey, &users); err != nil {
		metrics.RecordStorageError("users_load")
		return nil, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = map[string]model.User{}
	}
	return users, nil
}

// Get returns the stored profile for id.
func (r *UserRepository) Get(ctx context.Context, id string) (model.User, bool, error) {
	users, err := r.all(ctx)
	if err != nil {
		return model.User{}, false, err
	}
	u, ok := users[id]
	return u, ok, nil
}

// Put stores u under u.ID, replacing any previous profile.
func (r *UserRepository) Put(ctx context.Context, u model.User) error {
	if u.ID == "" {
		return fmt.Errorf("save user: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.all(ctx)
	if err != nil {
		return err
	}
	users[u.ID] = u
	if err := save(ctx, r.store, UserDataKey, users); err != nil {
		metrics.RecordStorageError("users_save")
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
