package service

import (
	"context"
	"sync"

	model "github.com/okian/stride/internal/domain/model"
	tracking "github.com/okian/stride/internal/domain/tracking"
	"github.com/okian/stride/pkg/logger"
)

const weekDays = 7

// Dashboard is the step summary shown on the home screen.
type Dashboard struct {
	Today              model.StepRecord   `json:"today"`
	Weekly             []model.StepRecord `json:"weekly"`
	WeeklyAverage      int                `json:"weeklyAverage"`
	PedometerAvailable bool               `json:"isPedometerAvailable"`
	Loading            bool               `json:"isLoading"`
	Tracking           bool               `json:"isTracking"`
	Source             string             `json:"source,omitempty"`
}

type dashboardState struct {
	mu        sync.Mutex
	current   Dashboard
	sub       *tracking.Subscription
	listeners map[uint64]func(Dashboard)
	nextID    uint64
	// refreshMu keeps refreshes from interleaving.
	refreshMu sync.Mutex
	promoteMu sync.Mutex
}

func ended(sub *tracking.Subscription) bool {
	select {
	case <-sub.Done():
		return true
	default:
		return false
	}
}

func cloneDashboard(d Dashboard) Dashboard {
	d.Weekly = append([]model.StepRecord(nil), d.Weekly...)
	if d.Weekly == nil {
		d.Weekly = []model.StepRecord{}
	}
	return d
}

// Dashboard returns a snapshot of the current dashboard state.
func (s *Service) Dashboard() Dashboard {
	s.dash.mu.Lock()
	defer s.dash.mu.Unlock()
	return cloneDashboard(s.dash.current)
}

// SubscribeDashboard registers fn for every dashboard change and returns a
// func that removes it.
func (s *Service) SubscribeDashboard(fn func(Dashboard)) (unsubscribe func()) {
	s.dash.mu.Lock()
	id := s.dash.nextID
	s.dash.nextID++
	s.dash.listeners[id] = fn
	s.dash.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.dash.mu.Lock()
			delete(s.dash.listeners, id)
			s.dash.mu.Unlock()
		})
	}
}

func (s *Service) updateDashboard(mutate func(*Dashboard)) {
	s.dash.mu.Lock()
	mutate(&s.dash.current)
	snap := cloneDashboard(s.dash.current)
	ls := make([]func(Dashboard), 0, len(s.dash.listeners))
	for _, l := range s.dash.listeners {
		ls = append(ls, l)
	}
	s.dash.mu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}

// Refresh reloads today's record, the last week and sensor availability.
func (s *Service) Refresh(ctx context.Context) Dashboard {
	s.dash.refreshMu.Lock()
	defer s.dash.refreshMu.Unlock()

	s.updateDashboard(func(d *Dashboard) { d.Loading = true })

	today := s.tracker.GetStepsToday(ctx)
	weekly, res := s.steps.History(ctx, weekDays)
	if !res.OK {
		s.logger.Warn(ctx, "weekly history degraded", logger.Error(res.Err))
	}
	avg := s.steps.WeeklyAverage(ctx)
	available := s.tracker.IsAvailable(ctx)

	s.updateDashboard(func(d *Dashboard) {
		d.Today = today
		d.Weekly = weekly
		d.WeeklyAverage = avg
		d.PedometerAvailable = available
		d.Loading = false
	})
	return s.Dashboard()
}

// Resume refreshes the dashboard and starts live tracking if it is not
// already running. Listeners see every tracked update.
func (s *Service) Resume(ctx context.Context) Dashboard {
	s.Refresh(ctx)

	s.mu.RLock()
	base := s.baseCtx
	s.mu.RUnlock()

	s.dash.mu.Lock()
	if s.dash.sub != nil && !ended(s.dash.sub) {
		s.dash.mu.Unlock()
		return s.Dashboard()
	}
	sub := s.tracker.StartTracking(base, func(rec model.StepRecord) {
		s.onTracked(base, rec)
	})
	s.dash.sub = sub
	s.dash.mu.Unlock()

	s.updateDashboard(func(d *Dashboard) {
		d.Tracking = true
		d.Source = sub.Source()
	})
	s.logger.Info(ctx, "step tracking resumed", logger.String("source", sub.Source()))
	return s.Dashboard()
}

// Suspend cancels live tracking. It is safe to call when not tracking.
func (s *Service) Suspend() {
	s.dash.mu.Lock()
	sub := s.dash.sub
	s.dash.sub = nil
	s.dash.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Cancel()
	s.updateDashboard(func(d *Dashboard) {
		d.Tracking = false
		d.Source = ""
	})
	s.logger.Info(context.Background(), "step tracking suspended")
}

// promoteTracking moves a synthetic subscription onto the sensor once pushed
// samples have made it available.
func (s *Service) promoteTracking(ctx context.Context) {
	if ctx.Err() != nil || !s.tracker.IsAvailable(ctx) {
		return
	}
	s.dash.promoteMu.Lock()
	defer s.dash.promoteMu.Unlock()

	s.dash.mu.Lock()
	sub := s.dash.sub
	if sub == nil || sub.Source() != tracking.SourceSynthetic {
		s.dash.mu.Unlock()
		return
	}
	s.dash.sub = nil
	s.dash.mu.Unlock()

	sub.Cancel()
	if ctx.Err() != nil {
		return
	}
	s.logger.Info(ctx, "pedometer available, switching tracking to sensor")
	s.Resume(ctx)
}

func (s *Service) onTracked(ctx context.Context, rec model.StepRecord) {
	if s.rankingSync {
		if _, ok := s.session.Current(); ok {
			if res := s.rankings.UpdateSteps(ctx, rec.Steps); !res.OK {
				s.logger.Warn(ctx, "ranking not updated from tracking", logger.Error(res.Err))
			}
		}
	}
	s.Refresh(ctx)
}
