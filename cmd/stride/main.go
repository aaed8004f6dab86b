package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/stride/internal/adapters/http/api"
	"github.com/okian/stride/internal/adapters/http/swagger"
	kv "github.com/okian/stride/internal/adapters/kv"
	app "github.com/okian/stride/internal/app"
	"github.com/okian/stride/internal/config"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	ranking "github.com/okian/stride/internal/domain/ranking"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	redisPingTimeout       = 5 * time.Second
)

func main() {
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithFile(cfg.LogFile)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open store", logger.String("backend", cfg.StoreBackend), logger.Error(err))
		return
	}

	svc := buildService(cfg, store, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()
	svc.Resume(ctx)

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildStore opens the configured key-value backend.
func buildStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return kv.NewFileStore(cfg.StoreDir)
	case config.BackendRedis:
		store := kv.NewRedisStore(cfg.RedisAddr,
			kv.WithRedisDB(cfg.RedisDB),
			kv.WithRedisPassword(cfg.RedisPassword),
			kv.WithKeyPrefix(cfg.RedisKeyPrefix),
		)
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return store, nil
	default:
		return kv.NewMemoryStore(), nil
	}
}

func buildSeeder(cfg *config.Config) ranking.Seeder {
	if cfg.RankingSeed == config.SeedDemoPeers {
		return ranking.NewDemoPeers(cfg.DemoPeers, time.Now().UnixNano())
	}
	return ranking.NewCurrentUserOnly()
}

func buildService(cfg *config.Config, store kv.Store, l logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(l),
		app.WithStore(store),
		app.WithEstimator(estimate.New(
			estimate.WithCaloriesPerStep(cfg.CaloriesPerStep),
			estimate.WithStrideLength(cfg.StrideLengthM),
			estimate.WithStepsPerMinute(cfg.StepsPerMinute),
		)),
		app.WithPlatform(cfg.Platform, cfg.UnreliablePlatforms),
		app.WithTrackingInterval(time.Duration(cfg.TrackingIntervalMS) * time.Millisecond),
		app.WithSensorStaleAfter(time.Duration(cfg.SensorStaleAfterMS) * time.Millisecond),
		app.WithWorkerCount(cfg.SampleWorkerCount),
		app.WithQueueSize(cfg.SampleQueueSize),
		app.WithDedupeSize(cfg.SampleDedupeSize),
		app.WithSeeder(buildSeeder(cfg)),
		app.WithRankingSync(cfg.SyncRankings),
	}
	if cfg.UserID != "" {
		opts = append(opts, app.WithIdentity(model.Identity{ID: cfg.UserID, Name: cfg.UserName, Email: cfg.UserEmail}))
	}
	return app.New(opts...)
}

func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithMaxHistoryDays(cfg.MaxHistoryDays)).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics refreshes gauges that are not driven by events.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
	}
}
