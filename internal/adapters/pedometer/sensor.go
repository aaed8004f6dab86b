// Package pedometer bridges step samples pushed by a device into a
// tracking.Sensor.
package pedometer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
)

const defaultStaleAfter = 5 * time.Minute

// ErrInvalidSample rejects samples that cannot be applied.
var ErrInvalidSample = errors.New("invalid step sample")

// Option applies a configuration option to the FeedSensor.
type Option func(*FeedSensor)

// WithStaleAfter sets how long the sensor stays available after the last sample.
func WithStaleAfter(d time.Duration) Option {
	return func(f *FeedSensor) {
		if d > 0 {
			f.staleAfter = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *FeedSensor) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLogger sets the sensor logger.
func WithLogger(l logger.Logger) Option {
	return func(f *FeedSensor) {
		if l != nil {
			f.logger = l
		}
	}
}

type watcher struct {
	total  int
	signal chan struct{}
}

// FeedSensor keeps per-day step totals built from device samples.
type FeedSensor struct {
	mu         sync.Mutex
	days       map[string]int
	lastSample time.Time
	staleAfter time.Duration
	watchers   map[*watcher]struct{}
	now        func() time.Time
	logger     logger.Logger
}

// NewFeedSensor creates a sensor with no samples; it is unavailable until
// the first sample arrives.
func NewFeedSensor(opts ...Option) *FeedSensor {
	f := &FeedSensor{
		days:       make(map[string]int),
		staleAfter: defaultStaleAfter,
		watchers:   make(map[*watcher]struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("pedometer")
	}
	return f
}

// Record applies one sample. A zero TS is read as "now".
func (f *FeedSensor) Record(_ context.Context, s model.StepSample) error {
	if s.Steps < 0 {
		return fmt.Errorf("%w: negative steps %d", ErrInvalidSample, s.Steps)
	}
	now := f.now()
	ts := s.TS
	if ts.IsZero() {
		ts = now
	}
	if ts.After(now.Add(f.staleAfter)) {
		return fmt.Errorf("%w: timestamp %s is in the future", ErrInvalidSample, ts.Format(time.RFC3339))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.days[model.DateKey(ts.In(now.Location()))] += s.Steps
	f.lastSample = now
	for w := range f.watchers {
		w.total += s.Steps
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
	return nil
}

// IsAvailable reports whether a sample arrived recently.
func (f *FeedSensor) IsAvailable(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastSample.IsZero() {
		return false, nil
	}
	return f.now().Sub(f.lastSample) <= f.staleAfter, nil
}

// StepCount sums the daily totals of every calendar day touched by
// [start, end]. Counts are kept per day, so partial days count in full.
func (f *FeedSensor) StepCount(ctx context.Context, start, end time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, fmt.Errorf("step count: end %s before start %s", end, start)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	last := model.DateKey(end)
	for d := model.StartOfDay(start); ; d = d.AddDate(0, 0, 1) {
		key := model.DateKey(d)
		if key > last {
			break
		}
		total += f.days[key]
	}
	return total, nil
}

// Watch reports the steps recorded since the watch began after each sample.
// Bursts may be coalesced into one report.
func (f *FeedSensor) Watch(ctx context.Context, emit func(steps int)) (func(), error) {
	w := &watcher{signal: make(chan struct{}, 1)}
	f.mu.Lock()
	f.watchers[w] = struct{}{}
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			f.mu.Lock()
			delete(f.watchers, w)
			f.mu.Unlock()
		})
	}

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
				f.mu.Lock()
				total := w.total
				f.mu.Unlock()
				emit(total)
			}
		}
	}()
	f.logger.Debug(ctx, "pedometer watch started")
	return stop, nil
}

// Watchers returns the number of open watches.
func (f *FeedSensor) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}
