// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	model "github.com/okian/stride/internal/domain/model"
)

const defaultMaxHistoryDays = 90

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StepDependencies
	SampleDependencies
	RankingDependencies
	SessionDependencies
	DashboardDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	stepsHandler     *StepsHandler
	samplesHandler   *SamplesHandler
	rankingsHandler  *RankingsHandler
	sessionHandler   *SessionHandler
	dashboardHandler *DashboardHandler
}

// Option configures the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxHistoryDays int
}

// WithMaxHistoryDays caps the days query of GET /steps/history.
func WithMaxHistoryDays(days int) Option {
	return func(c *serverConfig) {
		if days > 0 {
			c.maxHistoryDays = days
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxHistoryDays: defaultMaxHistoryDays}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		stepsHandler:     NewStepsHandler(deps, cfg.maxHistoryDays),
		samplesHandler:   NewSamplesHandler(deps),
		rankingsHandler:  NewRankingsHandler(deps),
		sessionHandler:   NewSessionHandler(deps),
		dashboardHandler: NewDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/steps/today", MetricsMiddleware(s.stepsHandler.HandleToday, "steps_today"))
	mux.HandleFunc("/steps/history", MetricsMiddleware(s.stepsHandler.HandleHistory, "steps_history"))
	mux.HandleFunc("/steps/average", MetricsMiddleware(s.stepsHandler.HandleAverage, "steps_average"))
	mux.HandleFunc("/steps/mock", MetricsMiddleware(s.stepsHandler.HandleMock, "steps_mock"))
	mux.HandleFunc("/steps", MetricsMiddleware(s.stepsHandler.HandleClear, "steps"))

	mux.HandleFunc("/pedometer/samples", MetricsMiddleware(s.samplesHandler.HandlePostSample, "samples"))

	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rankings/steps", MetricsMiddleware(s.rankingsHandler.HandleUpdateSteps, "rankings_steps"))
	mux.HandleFunc("/rankings/demo", MetricsMiddleware(s.rankingsHandler.HandleDemo, "rankings_demo"))

	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/profile", MetricsMiddleware(s.sessionHandler.HandleProfile, "profile"))

	mux.HandleFunc("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleDashboard, "dashboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeFailure maps a failed domain result to a status code.
func writeFailure(w http.ResponseWriter, op string, res model.Result) {
	switch {
	case res.Is(model.ErrNoCurrentUser):
		writeError(w, http.StatusConflict, "no_current_user", WrapKind(op, ErrNoCurrentUser, res.Err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, res.Err))
	}
}

func methodAllowed(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.NotFound(w, r)
	return false
}

var errMissingField = errors.New("missing field")
