package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

// Names reported by Subscription.Source.
const (
	SourceSensor    = "sensor"
	SourceSynthetic = "synthetic"
)

// StepStore is the persistence the tracker writes through.
type StepStore interface {
	Save(ctx context.Context, record model.StepRecord) model.Result
	Get(ctx context.Context, date string) (model.StepRecord, bool)
}

// Tracker turns provider counts into persisted daily step records.
type Tracker struct {
	sensor     Sensor
	synthetic  Provider
	store      StepStore
	estimator  *estimate.Estimator
	platform   string
	unreliable map[string]struct{}
	logger     logger.Logger
	now        func() time.Time
	today      singleflight.Group
}

// NewTracker creates a tracker writing to store.
func NewTracker(store StepStore, est *estimate.Estimator, opts ...Option) *Tracker {
	if est == nil {
		est = estimate.New()
	}
	t := &Tracker{
		store:     store,
		estimator: est,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.synthetic == nil {
		t.synthetic = NewSyntheticProvider()
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("tracking")
	}
	return t
}

// IsAvailable reports whether live sensor data can be used. Platforms listed
// as unreliable always report false. Check errors are logged and read as false.
func (t *Tracker) IsAvailable(ctx context.Context) bool {
	if t.sensor == nil {
		return false
	}
	if _, bad := t.unreliable[strings.ToLower(t.platform)]; bad {
		return false
	}
	ok, err := t.sensor.IsAvailable(ctx)
	if err != nil {
		t.logger.Warn(ctx, "sensor availability check failed", logger.Error(err))
		return false
	}
	return ok
}

// StartTracking delivers a fresh StepRecord for today to onUpdate every time
// the step count changes. Each record is persisted before onUpdate runs.
// Callbacks run on a single goroutine, one at a time.
func (t *Tracker) StartTracking(ctx context.Context, onUpdate func(model.StepRecord)) *Subscription {
	provider, source := t.synthetic, SourceSynthetic
	if t.IsAvailable(ctx) {
		provider, source = t.sensor, SourceSensor
	}

	sub := newSubscription(source)
	updates := make(chan int)
	emit := func(steps int) {
		select {
		case updates <- steps:
		case <-sub.stop:
		}
	}

	stop, err := provider.Watch(ctx, emit)
	if err != nil && source == SourceSensor {
		t.logger.Warn(ctx, "sensor watch failed, using synthetic steps", logger.Error(err))
		metrics.RecordSensorFallback("watch_failed")
		sub.source = SourceSynthetic
		stop, err = t.synthetic.Watch(ctx, emit)
	}
	if err != nil {
		t.logger.Error(ctx, "step watch failed", logger.Error(err))
		sub.Cancel()
		close(sub.done)
		return sub
	}
	sub.onStop = stop
	metrics.AddActiveSubscriptions(1)

	go func() {
		defer close(sub.done)
		defer metrics.AddActiveSubscriptions(-1)
		defer stop()
		for {
			select {
			case <-sub.stop:
				return
			case <-ctx.Done():
				sub.Cancel()
				return
			case steps := <-updates:
				rec := t.estimator.Record(model.DateKey(t.now()), steps)
				if res := t.store.Save(ctx, rec); !res.OK {
					t.logger.Warn(ctx, "tracked steps not persisted", logger.Error(res.Err))
				}
				metrics.RecordStepsRecorded(sub.source, rec.Steps)
				if sub.stopped() {
					return
				}
				onUpdate(rec)
			}
		}
	}()
	return sub
}

// GetStepsToday returns today's record: the stored one if present, else a
// fresh sensor reading since local midnight, else a synthetic count. New
// records are persisted. Concurrent first calls share one computation.
func (t *Tracker) GetStepsToday(ctx context.Context) model.StepRecord {
	now := t.now()
	date := model.DateKey(now)
	if rec, ok := t.store.Get(ctx, date); ok {
		return rec
	}

	v, _, _ := t.today.Do(date, func() (any, error) {
		if rec, ok := t.store.Get(ctx, date); ok {
			return rec, nil
		}
		steps, source := t.countToday(ctx, now)
		rec := t.estimator.Record(date, steps)
		if res := t.store.Save(ctx, rec); !res.OK {
			t.logger.Warn(ctx, "today's steps not persisted", logger.Error(res.Err))
		}
		metrics.RecordStepsRecorded(source, rec.Steps)
		return rec, nil
	})
	return v.(model.StepRecord)
}

func (t *Tracker) countToday(ctx context.Context, now time.Time) (int, string) {
	if t.IsAvailable(ctx) {
		steps, err := t.sensor.StepCount(ctx, model.StartOfDay(now), now)
		if err == nil && steps >= 0 {
			return steps, SourceSensor
		}
		if err == nil {
			err = fmt.Errorf("negative step count %d", steps)
		}
		t.logger.Warn(ctx, "sensor read failed, using synthetic steps", logger.Error(err))
		metrics.RecordSensorFallback("read_failed")
	} else {
		metrics.RecordSensorFallback("unavailable")
	}

	steps, err := t.synthetic.StepCount(ctx, model.StartOfDay(now), now)
	if err != nil {
		t.logger.Debug(ctx, "synthetic step count failed", logger.Error(err))
		steps = 0
	}
	return steps, SourceSynthetic
}
