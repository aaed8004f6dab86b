package feeder

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/stride/pkg/logger"
)

// randomBetween returns a value in [lo, hi).
func randomBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo)))
	if err != nil {
		return lo
	}
	return lo + int(n.Int64())
}

// generateSamples creates NumSamples samples with unique IDs, spread over
// the last minutes so every sample lands on today.
func generateSamples(ctx context.Context, config *Config, stats *Stats) ([]Sample, error) {
	if config.NumSamples <= 0 {
		return nil, fmt.Errorf("samples must be positive, got %d", config.NumSamples)
	}
	logger.Get().Info(ctx, "generating samples", logger.Int("numSamples", config.NumSamples))

	now := time.Now()
	samples := make([]Sample, config.NumSamples)
	for i := range samples {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during sample generation: %w", err)
		}
		ts := now.Add(-time.Duration(config.NumSamples-i) * time.Millisecond)
		if ts.Day() != now.Day() {
			ts = now
		}
		samples[i] = Sample{
			SampleID: uuid.New().String(),
			Steps:    randomBetween(config.MinSteps, config.MaxSteps),
			TS:       ts.Format(time.RFC3339),
		}
		stats.StepsSubmitted += samples[i].Steps
	}

	stats.SamplesGenerated = len(samples)
	logger.Get().Info(ctx, "generated samples successfully",
		logger.Int("count", len(samples)),
		logger.Int("steps", stats.StepsSubmitted))
	return samples, nil
}
