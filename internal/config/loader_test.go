package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/stride/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"STRIDE_CONFIG", "STRIDE_ADDR", "STRIDE_SAMPLE_QUEUE_SIZE", "STRIDE_SAMPLE_WORKER_COUNT",
	"STRIDE_STORE_BACKEND", "STRIDE_RANKING_SEED", "STRIDE_CALORIES_PER_STEP", "STRIDE_USER_ID",
	"STRIDE_TRACKING_INTERVAL_MS", "STRIDE_PLATFORM",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stride.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SampleQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.UnreliablePlatforms, convey.ShouldResemble, []string{"android"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("STRIDE_ADDR", ":8080")
			_ = os.Setenv("STRIDE_SAMPLE_QUEUE_SIZE", "500")
			_ = os.Setenv("STRIDE_STORE_BACKEND", "file")
			_ = os.Setenv("STRIDE_CALORIES_PER_STEP", "0.05")
			_ = os.Setenv("STRIDE_USER_ID", "u-42")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SampleQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendFile)
				convey.So(cfg.CaloriesPerStep, convey.ShouldEqual, 0.05)
				convey.So(cfg.UserID, convey.ShouldEqual, "u-42")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
sample_worker_count: 3
ranking_seed: demo_peers
demo_peers: 7
unreliable_platforms:
  - Android
  - web
`)
			_ = os.Setenv("STRIDE_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SampleWorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RankingSeed, convey.ShouldEqual, config.SeedDemoPeers)
				convey.So(cfg.DemoPeers, convey.ShouldEqual, 7)
				convey.So(cfg.UnreliablePlatforms, convey.ShouldResemble, []string{"android", "web"})
				convey.So(cfg.SampleQueueSize, convey.ShouldEqual, 10_000)
			})

			convey.Convey("And env vars override the file", func() {
				_ = os.Setenv("STRIDE_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SampleWorkerCount, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("STRIDE_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("STRIDE_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("STRIDE_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the tracking interval is not positive", func() {
			_ = os.Setenv("STRIDE_TRACKING_INTERVAL_MS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
