package service

import (
	"time"

	kv "github.com/okian/stride/internal/adapters/kv"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	ranking "github.com/okian/stride/internal/domain/ranking"
	"github.com/okian/stride/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the key-value backend. Defaults to an in-memory store.
func WithStore(store kv.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEstimator sets the factors used to derive calories, distance and duration.
func WithEstimator(e *estimate.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithPlatform sets the host platform and the platforms whose pedometer
// cannot be trusted for range queries.
func WithPlatform(platform string, unreliable []string) Option {
	return func(s *Service) {
		s.platform = platform
		s.unreliable = unreliable
	}
}

// WithTrackingInterval sets the synthetic tracking period.
func WithTrackingInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.trackingInterval = d
		}
	}
}

// WithSensorStaleAfter sets how long pushed pedometer samples keep the
// sensor available.
func WithSensorStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sensorStaleAfter = d
		}
	}
}

// WithWorkerCount sets the number of sample worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued samples.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the number of sample IDs remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSeeder selects how the first ranking is built.
func WithSeeder(seeder ranking.Seeder) Option {
	return func(s *Service) {
		if seeder != nil {
			s.seeder = seeder
		}
	}
}

// WithIdentity signs the given user in at construction.
func WithIdentity(id model.Identity) Option {
	return func(s *Service) {
		if id.ID != "" {
			s.identity = &id
		}
	}
}

// WithRankingSync controls whether tracked steps update the current user's
// ranking entry.
func WithRankingSync(enabled bool) Option {
	return func(s *Service) { s.rankingSync = enabled }
}

// WithClock overrides the time source of every component.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
