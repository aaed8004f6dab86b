package service

import (
	"context"
	"errors"
	"fmt"

	samplequeue "github.com/okian/stride/internal/adapters/mq/queue"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

// IngestSample dedupes a pushed pedometer sample and queues it for the
// workers. duplicate is true when the sample ID was already accepted.
// A full queue unrecords the ID so the device can retry.
func (s *Service) IngestSample(ctx context.Context, sample model.StepSample) (duplicate bool, err error) {
	if sample.SampleID == "" {
		return false, fmt.Errorf("%w: missing sample id", ErrInvalidSample)
	}
	if sample.Steps < 0 {
		return false, fmt.Errorf("%w: negative steps", ErrInvalidSample)
	}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, sample.SampleID) {
		metrics.RecordSampleDuplicate()
		s.logger.Debug(ctx, "duplicate sample skipped", logger.String("sample_id", sample.SampleID))
		return true, nil
	}

	if err := q.Enqueue(ctx, sample); err != nil {
		s.deduper.Unrecord(ctx, sample.SampleID)
		if errors.Is(err, samplequeue.ErrFull) {
			return false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return false, fmt.Errorf("enqueue sample: %w", err)
	}
	metrics.RecordSampleIngested()
	return false, nil
}

// sampleRecorder feeds worker samples into the sensor.
type sampleRecorder struct {
	s *Service
}

func (r sampleRecorder) Record(ctx context.Context, sample model.StepSample) error {
	if err := r.s.sensor.Record(ctx, sample); err != nil {
		return fmt.Errorf("record sample %s: %w", sample.SampleID, err)
	}
	go r.s.promoteTracking(ctx)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"platform":    s.platform,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		metrics.UpdateQueueSize(s.queue.Len())
	}
	s.mu.RUnlock()

	stats["dedupeEntries"] = s.deduper.Size()
	stats["pedometerAvailable"] = s.tracker.IsAvailable(ctx)
	dash := s.Dashboard()
	stats["tracking"] = dash.Tracking
	stats["trackingSource"] = dash.Source
	return stats
}
