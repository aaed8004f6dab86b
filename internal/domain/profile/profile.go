// Package profile manages the locally stored profile of the signed-in user.
package profile

import (
	"context"
	"fmt"
	"time"

	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
)

// Identities yields the signed-in user.
type Identities interface {
	Current() (model.Identity, bool)
}

// Store persists profiles by id.
type Store interface {
	Get(ctx context.Context, id string) (model.User, bool, error)
	Put(ctx context.Context, u model.User) error
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service merges the session identity with the stored profile.
type Service struct {
	identities Identities
	store      Store
	now        func() time.Time
	logger     logger.Logger
}

// New creates a profile service.
func New(identities Identities, store Store, opts ...Option) *Service {
	s := &Service{identities: identities, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("profile")
	}
	return s
}

// CurrentUser returns the signed-in user's profile. Without a stored profile
// one is derived from the identity. A storage failure is logged and the
// derived profile returned.
func (s *Service) CurrentUser(ctx context.Context) (model.User, bool) {
	id, ok := s.identities.Current()
	if !ok {
		return model.User{}, false
	}
	u, found, err := s.store.Get(ctx, id.ID)
	if err != nil {
		s.logger.Error(ctx, "load profile failed", logger.String("user_id", id.ID), logger.Error(err))
	}
	if found {
		return u, true
	}
	return s.fromIdentity(id), true
}

func (s *Service) fromIdentity(id model.Identity) model.User {
	first, last := model.SplitName(id.Name)
	name := id.Name
	if name == "" {
		name = first
	}
	now := s.now()
	return model.User{
		ID:         id.ID,
		FirstName:  first,
		LastName:   last,
		Name:       name,
		Email:      id.Email,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Update merges patch into the current profile, stamps LastUpdated and
// stores the result.
func (s *Service) Update(ctx context.Context, patch model.UserPatch) (model.User, model.Result) {
	u, ok := s.CurrentUser(ctx)
	if !ok {
		return model.User{}, model.Failure(fmt.Errorf("update profile: %w", model.ErrNoCurrentUser))
	}
	u = u.Apply(patch)
	u.LastUpdated = s.now()
	if err := s.store.Put(ctx, u); err != nil {
		s.logger.Error(ctx, "save profile failed", logger.String("user_id", u.ID), logger.Error(err))
		return u, model.Failure(fmt.Errorf("update profile: %w", err))
	}
	return u, model.Success()
}
