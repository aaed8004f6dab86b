package feeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/stride/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrVerification reports a read path that disagrees with what was fed.
var ErrVerification = errors.New("verification failed")

type identityRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rankingStepsRequest struct {
	Steps int `json:"steps"`
}

// Run executes a complete feed: health check, optional sign in, sample
// submission with replays, drain, and verification of today and rankings.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("feeder")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting stride feed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("samples", config.NumSamples),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	if config.UserID != "" {
		req := identityRequest{ID: config.UserID, Name: config.UserName}
		if err := client.postJSON(ctx, config.BaseURL+"/session", req, nil); err != nil {
			return stats, fmt.Errorf("sign in failed: %w", err)
		}
		log.Info(ctx, "signed in", logger.String("user", config.UserID))
	}

	samples, err := generateSamples(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("sample generation failed: %w", err)
	}

	submitSamples(ctx, config, samples, stats)
	if replays := replaySet(samples, config.Replays); len(replays) > 0 {
		before := stats.SamplesAccepted
		submitSamples(ctx, config, replays, stats)
		if stats.SamplesAccepted != before {
			return stats, fmt.Errorf("%w: %d replayed samples were accepted again",
				ErrVerification, stats.SamplesAccepted-before)
		}
	}

	if err := waitForDrain(ctx, client, config); err != nil {
		return stats, fmt.Errorf("queue drain failed: %w", err)
	}

	var today StepRecord
	if err := client.getJSON(ctx, config.BaseURL+"/steps/today", &today); err != nil {
		return stats, fmt.Errorf("today retrieval failed: %w", err)
	}
	stats.TodaySteps = today.Steps
	if err := verifyToday(today, time.Now()); err != nil {
		return stats, err
	}

	if config.UserID != "" {
		if err := client.postJSON(ctx, config.BaseURL+"/rankings/steps", rankingStepsRequest{Steps: today.Steps}, nil); err != nil {
			return stats, fmt.Errorf("ranking update failed: %w", err)
		}
		var entries []RankingEntry
		if err := client.getJSON(ctx, config.BaseURL+"/rankings", &entries); err != nil {
			return stats, fmt.Errorf("ranking retrieval failed: %w", err)
		}
		stats.RankingEntries = len(entries)
		if err := verifyRankings(entries, config.UserID, today.Steps); err != nil {
			return stats, err
		}
		displayTopEntries(ctx, entries, config.Verbose)
	}

	if config.OutputFile != "" {
		if err := saveSamplesToFile(ctx, config.OutputFile, samples); err != nil {
			log.Warn(ctx, "failed to save samples to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "feed completed successfully")
	return stats, nil
}

// replaySet returns up to n already-sent samples.
func replaySet(samples []Sample, n int) []Sample {
	if n > len(samples) {
		n = len(samples)
	}
	if n <= 0 {
		return nil
	}
	return samples[:n]
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	// Any 200 counts; the body is the Prometheus exposition.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// waitForDrain polls /stats until the sample queue is empty.
func waitForDrain(ctx context.Context, client *HTTPClient, config *Config) error {
	ctx, cancel := context.WithTimeout(ctx, config.DrainWait)
	defer cancel()

	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()
	for {
		var stats map[string]interface{}
		if err := client.getJSON(ctx, config.BaseURL+"/stats", &stats); err != nil {
			return err
		}
		// JSON numbers decode as float64.
		if n, ok := stats["queueLength"].(float64); !ok || n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("queue not drained: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// saveSamplesToFile saves the generated samples to a JSON file.
func saveSamplesToFile(ctx context.Context, filename string, samples []Sample) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal samples: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "samples saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, samplesPerSecond float64
	if stats.SamplesSubmitted > 0 {
		acceptRate = float64(stats.SamplesAccepted) / float64(stats.SamplesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		samplesPerSecond = float64(stats.SamplesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("samplesGenerated", stats.SamplesGenerated),
		logger.Int("samplesSubmitted", stats.SamplesSubmitted),
		logger.Int("samplesAccepted", stats.SamplesAccepted),
		logger.Int("samplesDuplicate", stats.SamplesDuplicate),
		logger.Int("samplesRejected", stats.SamplesRejected),
		logger.Int("samplesFailed", stats.SamplesFailed),
		logger.Int("stepsSubmitted", stats.StepsSubmitted),
		logger.Int("todaySteps", stats.TodaySteps),
		logger.Int("rankingEntries", stats.RankingEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("samplesPerSecond", samplesPerSecond))
}
