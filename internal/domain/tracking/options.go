package tracking

import (
	"time"

	"github.com/okian/stride/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithSensor sets the device sensor. Without one the tracker is synthetic only.
func WithSensor(s Sensor) Option {
	return func(t *Tracker) { t.sensor = s }
}

// WithSynthetic replaces the fallback provider.
func WithSynthetic(p Provider) Option {
	return func(t *Tracker) {
		if p != nil {
			t.synthetic = p
		}
	}
}

// WithPlatform sets the host platform name and the platforms whose sensors
// cannot answer range queries reliably.
func WithPlatform(platform string, unreliable []string) Option {
	return func(t *Tracker) {
		t.platform = platform
		t.unreliable = make(map[string]struct{}, len(unreliable))
		for _, p := range unreliable {
			t.unreliable[p] = struct{}{}
		}
	}
}

// WithLogger sets the tracker logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}
