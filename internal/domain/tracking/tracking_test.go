package tracking_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	kv "github.com/okian/stride/internal/adapters/kv"
	repository "github.com/okian/stride/internal/adapters/repository"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	tracking "github.com/okian/stride/internal/domain/tracking"
	"github.com/okian/stride/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func clock() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.Local) }

// fakeSensor is a controllable live sensor.
type fakeSensor struct {
	available bool
	availErr  error
	count     int
	countErr  error
	watchErr  error

	mu    sync.Mutex
	emit  func(int)
	stops int
}

func (f *fakeSensor) IsAvailable(context.Context) (bool, error) { return f.available, f.availErr }

func (f *fakeSensor) StepCount(context.Context, time.Time, time.Time) (int, error) {
	return f.count, f.countErr
}

func (f *fakeSensor) Watch(_ context.Context, emit func(int)) (func(), error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	f.mu.Lock()
	f.emit = emit
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
	}, nil
}

func (f *fakeSensor) push(steps int) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	emit(steps)
}

func newRepo() *repository.StepRepository {
	return repository.NewStepRepository(kv.NewMemoryStore(), estimate.New(), repository.WithClock(clock))
}

func TestTracker_IsAvailable(t *testing.T) {
	Convey("Given trackers with different sensors", t, func() {
		ctx := context.Background()
		repo := newRepo()

		Convey("Then no sensor means unavailable", func() {
			So(tracking.NewTracker(repo, nil).IsAvailable(ctx), ShouldBeFalse)
		})

		Convey("Then a working sensor is available", func() {
			tr := tracking.NewTracker(repo, nil, tracking.WithSensor(&fakeSensor{available: true}))
			So(tr.IsAvailable(ctx), ShouldBeTrue)
		})

		Convey("Then unreliable platforms are never available", func() {
			tr := tracking.NewTracker(repo, nil,
				tracking.WithSensor(&fakeSensor{available: true}),
				tracking.WithPlatform("android", []string{"android"}))
			So(tr.IsAvailable(ctx), ShouldBeFalse)
		})

		Convey("Then check errors read as unavailable", func() {
			tr := tracking.NewTracker(repo, nil,
				tracking.WithSensor(&fakeSensor{available: true, availErr: errors.New("permission denied")}))
			So(tr.IsAvailable(ctx), ShouldBeFalse)
		})
	})
}

func TestTracker_GetStepsToday(t *testing.T) {
	Convey("Given an empty store and no sensor", t, func() {
		ctx := context.Background()
		repo := newRepo()
		tr := tracking.NewTracker(repo, nil, tracking.WithClock(clock),
			tracking.WithSynthetic(tracking.NewSyntheticProvider(tracking.WithSeed(1))))

		Convey("When today's steps are requested", func() {
			rec := tr.GetStepsToday(ctx)

			Convey("Then a synthetic record is produced and persisted", func() {
				So(rec.Date, ShouldEqual, "2026-10-14")
				So(rec.Steps, ShouldBeBetweenOrEqual, 1000, 2999)
				So(rec, ShouldResemble, estimate.New().Record(rec.Date, rec.Steps))
				stored, ok := repo.Get(ctx, "2026-10-14")
				So(ok, ShouldBeTrue)
				So(stored, ShouldResemble, rec)
			})

			Convey("And an immediate second call returns the same record", func() {
				So(tr.GetStepsToday(ctx), ShouldResemble, rec)
			})
		})

		Convey("When many callers ask at once", func() {
			var wg sync.WaitGroup
			results := make([]model.StepRecord, 20)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = tr.GetStepsToday(ctx)
				}(i)
			}
			wg.Wait()

			Convey("Then they all agree", func() {
				for _, r := range results {
					So(r, ShouldResemble, results[0])
				}
			})
		})
	})

	Convey("Given a live sensor", t, func() {
		ctx := context.Background()
		repo := newRepo()
		sensor := &fakeSensor{available: true, count: 7568}
		tr := tracking.NewTracker(repo, nil, tracking.WithSensor(sensor), tracking.WithClock(clock))

		Convey("Then the count since midnight is used", func() {
			rec := tr.GetStepsToday(ctx)
			So(rec.Steps, ShouldEqual, 7568)
			So(rec.Calories, ShouldEqual, 303)
			So(rec.Distance, ShouldEqual, 5.8)
			So(rec.Duration, ShouldEqual, 76)
		})

		Convey("Then a stored record wins over the sensor", func() {
			So(repo.Save(ctx, estimate.New().Record("2026-10-14", 42)).OK, ShouldBeTrue)
			So(tr.GetStepsToday(ctx).Steps, ShouldEqual, 42)
		})

		Convey("Then a failing read falls back to synthesis", func() {
			sensor.countErr = errors.New("query failed")
			rec := tr.GetStepsToday(ctx)
			So(rec.Steps, ShouldBeBetweenOrEqual, 1000, 2999)
		})
	})
}

func TestTracker_StartTracking(t *testing.T) {
	Convey("Given a tracker with a live sensor", t, func() {
		ctx := context.Background()
		repo := newRepo()
		sensor := &fakeSensor{available: true}
		tr := tracking.NewTracker(repo, nil, tracking.WithSensor(sensor), tracking.WithClock(clock))

		got := make(chan model.StepRecord, 10)
		persisted := make(chan bool, 10)
		sub := tr.StartTracking(ctx, func(r model.StepRecord) {
			stored, _ := repo.Get(ctx, r.Date)
			persisted <- stored == r
			got <- r
		})
		So(sub.Source(), ShouldEqual, "sensor")

		Convey("When the sensor reports counts", func() {
			sensor.push(120)
			sensor.push(340)

			Convey("Then each becomes a persisted record for today", func() {
				r := <-got
				So(r.Steps, ShouldEqual, 120)
				So(<-persisted, ShouldBeTrue)
				r = <-got
				So(<-persisted, ShouldBeTrue)
				So(r.Steps, ShouldEqual, 340)
				So(r.Date, ShouldEqual, "2026-10-14")
				sub.Cancel()
			})
		})

		Convey("When the subscription is cancelled twice", func() {
			sub.Cancel()
			sub.Cancel()
			<-sub.Done()

			Convey("Then the watch is released and nothing else arrives", func() {
				sensor.push(999)
				So(len(got), ShouldEqual, 0)
				sensor.mu.Lock()
				So(sensor.stops, ShouldBeGreaterThanOrEqualTo, 1)
				sensor.mu.Unlock()
			})
		})
	})

	Convey("Given a sensor whose watch fails", t, func() {
		ctx := context.Background()
		sensor := &fakeSensor{available: true, watchErr: errors.New("no motion permission")}
		tr := tracking.NewTracker(newRepo(), nil, tracking.WithSensor(sensor), tracking.WithClock(clock),
			tracking.WithSynthetic(tracking.NewSyntheticProvider(tracking.WithInterval(5*time.Millisecond))))

		got := make(chan model.StepRecord, 100)
		sub := tr.StartTracking(ctx, func(r model.StepRecord) {
			select {
			case got <- r:
			default:
			}
		})
		defer sub.Cancel()

		Convey("Then synthetic tracking takes over", func() {
			So(sub.Source(), ShouldEqual, "synthetic")
			first := <-got
			So(first.Steps, ShouldBeBetweenOrEqual, 500, 1499)
			second := <-got
			So(second.Steps-first.Steps, ShouldBeBetweenOrEqual, 30, 149)
		})
	})

	Convey("Given a synthetic tracker whose context ends", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		tr := tracking.NewTracker(newRepo(), nil,
			tracking.WithSynthetic(tracking.NewSyntheticProvider(tracking.WithInterval(time.Millisecond))))
		sub := tr.StartTracking(ctx, func(model.StepRecord) {})
		cancel()

		Convey("Then the subscription stops on its own", func() {
			select {
			case <-sub.Done():
			case <-time.After(2 * time.Second):
				So("subscription still running", ShouldBeEmpty)
			}
		})
	})

	Convey("Given a callback that cancels its own subscription", t, func() {
		tr := tracking.NewTracker(newRepo(), nil,
			tracking.WithSynthetic(tracking.NewSyntheticProvider(tracking.WithInterval(time.Millisecond))))
		var mu sync.Mutex
		calls := 0
		var sub *tracking.Subscription
		ready := make(chan struct{})
		sub = tr.StartTracking(context.Background(), func(model.StepRecord) {
			<-ready
			mu.Lock()
			calls++
			mu.Unlock()
			sub.Cancel()
		})
		close(ready)

		Convey("Then it runs exactly once", func() {
			<-sub.Done()
			mu.Lock()
			defer mu.Unlock()
			So(calls, ShouldEqual, 1)
		})
	})
}
