// Package service wires step tracking, persistence, ranking and sample
// ingestion into one explicit state object used by the HTTP API.
package service

import (
	"context"
	"io"
	"runtime"
	"sync"
	"time"

	kv "github.com/okian/stride/internal/adapters/kv"
	samplequeue "github.com/okian/stride/internal/adapters/mq/queue"
	workerpool "github.com/okian/stride/internal/adapters/mq/worker"
	"github.com/okian/stride/internal/adapters/pedometer"
	repository "github.com/okian/stride/internal/adapters/repository"
	"github.com/okian/stride/internal/domain/dedupe"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	profile "github.com/okian/stride/internal/domain/profile"
	ranking "github.com/okian/stride/internal/domain/ranking"
	session "github.com/okian/stride/internal/domain/session"
	tracking "github.com/okian/stride/internal/domain/tracking"
	"github.com/okian/stride/pkg/logger"
)

// Default service configuration.
const (
	defaultQueueSize        = 10000
	defaultDedupeSize       = 50000
	defaultTrackingInterval = time.Minute
	defaultSensorStaleAfter = 5 * time.Minute
	stopTimeout             = 10 * time.Second
)

// Service owns every stateful component of the step pipeline.
type Service struct {
	mu sync.RWMutex

	// Configuration
	store            kv.Store
	estimator        *estimate.Estimator
	platform         string
	unreliable       []string
	trackingInterval time.Duration
	sensorStaleAfter time.Duration
	workerCount      int
	queueSize        int
	dedupeSize       int
	seeder           ranking.Seeder
	identity         *model.Identity
	rankingSync      bool
	now              func() time.Time

	// Components
	steps    *repository.StepRepository
	session  *session.Session
	profiles *profile.Service
	rankings *ranking.Aggregator
	sensor   *pedometer.FeedSensor
	tracker  *tracking.Tracker
	deduper  dedupe.Deduper
	queue    *samplequeue.InMemoryQueue
	pool     *workerpool.Pool

	// State
	started    bool
	baseCtx    context.Context
	baseCancel context.CancelFunc
	dash       dashboardState

	logger logger.Logger
}

// New constructs a Service. Domain operations work immediately; Start is
// needed for sample ingestion and live tracking.
func New(opts ...Option) *Service {
	s := &Service{
		trackingInterval: defaultTrackingInterval,
		sensorStaleAfter: defaultSensorStaleAfter,
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		rankingSync:      true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = kv.NewMemoryStore()
	}
	if s.estimator == nil {
		s.estimator = estimate.New()
	}
	if s.seeder == nil {
		s.seeder = ranking.NewCurrentUserOnly()
	}
	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	s.dash.listeners = make(map[uint64]func(Dashboard))

	repoOpts := []repository.Option{repository.WithClock(s.now)}
	s.steps = repository.NewStepRepository(s.store, s.estimator, repoOpts...)
	s.session = session.New()
	s.profiles = profile.New(s.session, repository.NewUserRepository(s.store, repoOpts...), profile.WithClock(s.now))
	s.rankings = ranking.NewAggregator(repository.NewRankingRepository(s.store, repoOpts...), s.profiles,
		ranking.WithSeeder(s.seeder))
	s.sensor = pedometer.NewFeedSensor(pedometer.WithClock(s.now), pedometer.WithStaleAfter(s.sensorStaleAfter))
	s.tracker = tracking.NewTracker(s.steps, s.estimator,
		tracking.WithSensor(s.sensor),
		tracking.WithSynthetic(tracking.NewSyntheticProvider(tracking.WithInterval(s.trackingInterval))),
		tracking.WithPlatform(s.platform, s.unreliable),
		tracking.WithClock(s.now),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	if s.identity != nil {
		s.session.SignIn(*s.identity)
	}
	return s
}

// Start starts the sample workers. It is a no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting stride service...")

	s.queue = samplequeue.NewInMemoryQueue(samplequeue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, sampleRecorder{s: s})
	s.pool.Start(s.baseCtx)

	s.started = true
	s.logger.Info(ctx, "stride service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("platform", s.platform),
	)
	return nil
}

// Stop cancels tracking, drains the sample queue and closes the store.
func (s *Service) Stop() {
	s.Suspend()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping stride service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.baseCancel()
	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "stride service stopped")
}

// Tracker returns the step data source.
func (s *Service) Tracker() *tracking.Tracker { return s.tracker }

// Sensor returns the pedometer bridge fed by ingested samples.
func (s *Service) Sensor() *pedometer.FeedSensor { return s.sensor }

// Steps returns the step repository.
func (s *Service) Steps() *repository.StepRepository { return s.steps }

// Rankings returns the ranking aggregator.
func (s *Service) Rankings() *ranking.Aggregator { return s.rankings }

// Session returns the identity session.
func (s *Service) Session() *session.Session { return s.session }

// Profiles returns the profile service.
func (s *Service) Profiles() *profile.Service { return s.profiles }
