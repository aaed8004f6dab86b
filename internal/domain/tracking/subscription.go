package tracking

import "sync"

// Subscription is the handle returned by StartTracking.
type Subscription struct {
	once   sync.Once
	stop   chan struct{}
	done   chan struct{}
	source string
	onStop func()
}

func newSubscription(source string) *Subscription {
	return &Subscription{
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		source: source,
	}
}

// Cancel stops further callbacks and releases the underlying watch.
// It is safe to call more than once and from inside the callback.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.stop)
		if s.onStop != nil {
			s.onStop()
		}
	})
}

// Done is closed once the subscription has fully stopped; no callback runs
// after that.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Source reports which provider feeds the subscription: "sensor" or "synthetic".
func (s *Subscription) Source() string { return s.source }

func (s *Subscription) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}
