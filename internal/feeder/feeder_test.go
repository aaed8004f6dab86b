package feeder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/stride/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

// fakeService implements the routes a feed run touches.
type fakeService struct {
	mu      sync.Mutex
	seen    map[string]bool
	steps   int
	ranking int
	user    string
}

func newFakeService() *fakeService {
	return &fakeService{seen: map[string]bool{}}
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		var req identityRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.user = req.ID
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"signedIn":true}`))
	})
	mux.HandleFunc("/pedometer/samples", func(w http.ResponseWriter, r *http.Request) {
		var s Sample
		_ = json.NewDecoder(r.Body).Decode(&s)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.seen[s.SampleID] {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"duplicate","duplicate":true}`))
			return
		}
		f.seen[s.SampleID] = true
		f.steps += s.Steps
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"accepted","duplicate":false}`))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"queueLength":0}`))
	})
	mux.HandleFunc("/steps/today", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(StepRecord{Date: time.Now().Format("2006-01-02"), Steps: f.steps, Calories: 1, Distance: 0.1, Duration: 1})
	})
	mux.HandleFunc("/rankings/steps", func(w http.ResponseWriter, r *http.Request) {
		var req rankingStepsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.ranking = req.Steps
		f.mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode([]RankingEntry{
			{ID: "peer", Steps: f.ranking + 1, Position: 1},
			{ID: f.user, Steps: f.ranking, Position: 2},
		})
	})
	return mux
}

func testConfig(url string) *Config {
	return &Config{
		BaseURL:    url,
		NumSamples: 50,
		Replays:    5,
		MinSteps:   10,
		MaxSteps:   20,
		Workers:    4,
		Timeout:    2 * time.Second,
		DrainWait:  2 * time.Second,
		UserID:     "feeder",
		UserName:   "Feed Bot",
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service", t, func() {
		fake := newFakeService()
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()
		ctx := context.Background()

		convey.Convey("When a feed runs", func() {
			cfg := testConfig(srv.URL)
			cfg.OutputFile = filepath.Join(t.TempDir(), "samples.json")
			stats, err := Run(ctx, cfg)

			convey.Convey("Then every sample is accepted once and verified", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.SamplesGenerated, convey.ShouldEqual, 50)
				convey.So(stats.SamplesAccepted, convey.ShouldEqual, 50)
				convey.So(stats.SamplesDuplicate, convey.ShouldEqual, 5)
				convey.So(stats.TodaySteps, convey.ShouldEqual, stats.StepsSubmitted)
				convey.So(stats.RankingEntries, convey.ShouldEqual, 2)
				convey.So(fake.ranking, convey.ShouldEqual, stats.StepsSubmitted)
			})
		})

		convey.Convey("When no samples are requested", func() {
			cfg := testConfig(srv.URL)
			cfg.NumSamples = 0
			_, err := Run(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given no service", t, func() {
		_, err := Run(context.Background(), testConfig("http://127.0.0.1:1"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestVerifyRankings(t *testing.T) {
	convey.Convey("Given rankings", t, func() {
		ok := []RankingEntry{{ID: "a", Steps: 10, Position: 1}, {ID: "me", Steps: 10, Position: 2}}
		convey.So(verifyRankings(ok, "me", 10), convey.ShouldBeNil)

		gap := []RankingEntry{{ID: "me", Steps: 10, Position: 2}}
		convey.So(errors.Is(verifyRankings(gap, "me", 10), ErrVerification), convey.ShouldBeTrue)

		unsorted := []RankingEntry{{ID: "a", Steps: 1, Position: 1}, {ID: "me", Steps: 10, Position: 2}}
		convey.So(verifyRankings(unsorted, "me", 10), convey.ShouldNotBeNil)

		convey.So(verifyRankings(ok, "me", 11), convey.ShouldNotBeNil)
		convey.So(verifyRankings(ok, "ghost", 10), convey.ShouldNotBeNil)
		convey.So(verifyRankings(nil, "me", 10), convey.ShouldNotBeNil)
	})
}

func TestVerifyToday(t *testing.T) {
	convey.Convey("Given today's record", t, func() {
		now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.Local)
		convey.So(verifyToday(StepRecord{Date: "2026-10-14", Steps: 100, Calories: 4, Distance: 0.1, Duration: 1}, now), convey.ShouldBeNil)
		convey.So(verifyToday(StepRecord{Date: "2026-10-13"}, now), convey.ShouldNotBeNil)
		convey.So(verifyToday(StepRecord{Date: "2026-10-14", Calories: 3}, now), convey.ShouldNotBeNil)
		convey.So(verifyToday(StepRecord{Date: "2026-10-14", Steps: -1}, now), convey.ShouldNotBeNil)
	})
}

func TestGenerateSamples(t *testing.T) {
	convey.Convey("Given a generator", t, func() {
		stats := &Stats{}
		samples, err := generateSamples(context.Background(), &Config{NumSamples: 100, MinSteps: 5, MaxSteps: 8}, stats)
		convey.So(err, convey.ShouldBeNil)
		ids := map[string]bool{}
		total := 0
		for _, s := range samples {
			convey.So(s.Steps, convey.ShouldBeBetweenOrEqual, 5, 7)
			ids[s.SampleID] = true
			total += s.Steps
		}
		convey.So(len(ids), convey.ShouldEqual, 100)
		convey.So(stats.StepsSubmitted, convey.ShouldEqual, total)
		convey.So(replaySet(samples, 3), convey.ShouldHaveLength, 3)
		convey.So(replaySet(samples, 500), convey.ShouldHaveLength, 100)
		convey.So(replaySet(samples, 0), convey.ShouldBeNil)
	})
}
