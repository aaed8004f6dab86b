package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/stride/internal/feeder"
)

// Default configuration constants.
const (
	defaultNumSamples  = 10000
	defaultReplays     = 100
	defaultMinSteps    = 5
	defaultMaxSteps    = 120
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultDrainWait   = 2 * time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func newRootCmd() *cobra.Command {
	cfg := &feeder.Config{}
	var (
		envFile string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "stepfeed",
		Short: "Feed pedometer samples into a stride service",
		Long: `Feed pedometer samples into a stride service.

Samples are posted concurrently to /pedometer/samples, a share of them is
replayed to check dedupe, and after the queue drains /steps/today and
/rankings are verified.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(cmd, envFile, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := feeder.SetupLogging(logFile, cfg.Verbose); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()
			if _, err := feeder.Run(ctx, cfg); err != nil {
				return fmt.Errorf("feed failed: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	flags.IntVar(&cfg.NumSamples, "samples", defaultNumSamples, "Number of samples to generate and submit")
	flags.IntVar(&cfg.Replays, "replays", defaultReplays, "Number of samples to send twice")
	flags.IntVar(&cfg.MinSteps, "min-steps", defaultMinSteps, "Smallest step count per sample")
	flags.IntVar(&cfg.MaxSteps, "max-steps", defaultMaxSteps, "Largest step count per sample (exclusive)")
	flags.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.DurationVar(&cfg.DrainWait, "drain-wait", defaultDrainWait, "How long to wait for the sample queue to drain")
	flags.StringVar(&cfg.UserID, "user", "", "Sign in this user id and verify its ranking entry")
	flags.StringVar(&cfg.UserName, "name", "Step Feeder", "Display name for --user")
	flags.StringVar(&cfg.OutputFile, "output", "", "Write generated samples to this JSON file")
	flags.StringVar(&logFile, "log", "", "Also write logs to this rotating file")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with STEPFEED_URL and STEPFEED_USER")

	return cmd
}

// loadEnv reads envFile when present and applies STEPFEED_* values to flags
// the user did not set.
func loadEnv(cmd *cobra.Command, envFile string, cfg *feeder.Config) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if v := os.Getenv("STEPFEED_URL"); v != "" && !cmd.Flags().Changed("url") {
		cfg.BaseURL = v
	}
	if v := os.Getenv("STEPFEED_USER"); v != "" && !cmd.Flags().Changed("user") {
		cfg.UserID = v
	}
	return nil
}
