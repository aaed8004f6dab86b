// Package config defines service configuration and its loading from
// defaults, an optional YAML file and STRIDE_* environment variables.
package config

import (
	"context"
	"runtime"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Ranking seed policies.
const (
	SeedCurrentUser = "current_user"
	SeedDemoPeers   = "demo_peers"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// LogFile, when set, also writes logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreBackend selects memory, file or redis.
	StoreBackend   string `koanf:"store_backend"`
	StoreDir       string `koanf:"store_dir"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisDB        int    `koanf:"redis_db"`
	RedisPassword  string `koanf:"redis_password"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// Platform names the host; UnreliablePlatforms never use live sensor data.
	Platform            string   `koanf:"platform"`
	UnreliablePlatforms []string `koanf:"unreliable_platforms"`

	// TrackingIntervalMS is the synthetic tracking period.
	TrackingIntervalMS int `koanf:"tracking_interval_ms"`
	// SensorStaleAfterMS keeps the pushed-sample sensor available after the last sample.
	SensorStaleAfterMS int `koanf:"sensor_stale_after_ms"`

	SampleQueueSize   int `koanf:"sample_queue_size"`
	SampleWorkerCount int `koanf:"sample_worker_count"`
	SampleDedupeSize  int `koanf:"sample_dedupe_size"`

	// RankingSeed is current_user or demo_peers.
	RankingSeed string `koanf:"ranking_seed"`
	DemoPeers   int    `koanf:"demo_peers"`
	// SyncRankings pushes tracked steps into the current user's ranking entry.
	SyncRankings bool `koanf:"sync_rankings"`

	// MaxHistoryDays caps GET /steps/history?days.
	MaxHistoryDays int `koanf:"max_history_days"`

	// Identity signed in at startup; empty UserID starts signed out.
	UserID    string `koanf:"user_id"`
	UserName  string `koanf:"user_name"`
	UserEmail string `koanf:"user_email"`

	CaloriesPerStep float64 `koanf:"calories_per_step"`
	StrideLengthM   float64 `koanf:"stride_length_m"`
	StepsPerMinute  float64 `koanf:"steps_per_minute"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreBackend:        BackendMemory,
		StoreDir:            "./data",
		RedisAddr:           "localhost:6379",
		RedisKeyPrefix:      "stride:",
		Platform:            "linux",
		UnreliablePlatforms: []string{"android"},
		TrackingIntervalMS:  60_000,
		SensorStaleAfterMS:  300_000,
		SampleQueueSize:     10_000,
		SampleWorkerCount:   runtime.NumCPU() * 2,
		SampleDedupeSize:    50_000,
		RankingSeed:         SeedCurrentUser,
		DemoPeers:           5,
		SyncRankings:        true,
		MaxHistoryDays:      90,
		CaloriesPerStep:     0.04,
		StrideLengthM:       0.762,
		StepsPerMinute:      100,
	}
}
