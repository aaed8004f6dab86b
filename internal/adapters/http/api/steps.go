package api

import (
	"context"
	"net/http"
	"strconv"

	model "github.com/okian/stride/internal/domain/model"
)

const defaultHistoryDays = 7

// StepDependencies defines the step data operations exposed over HTTP.
type StepDependencies interface {
	StepsToday(ctx context.Context) model.StepRecord
	StepHistory(ctx context.Context, days int) ([]model.StepRecord, model.Result)
	WeeklyAverage(ctx context.Context) int
	GenerateMockSteps(ctx context.Context) ([]model.StepRecord, model.Result)
	ClearSteps(ctx context.Context) model.Result
}

// StepsHandler handles step data requests.
type StepsHandler struct {
	deps    StepDependencies
	maxDays int
}

// NewStepsHandler creates a new steps handler.
func NewStepsHandler(deps StepDependencies, maxDays int) *StepsHandler {
	return &StepsHandler{deps: deps, maxDays: maxDays}
}

type averageResponse struct {
	WeeklyAverage int `json:"weeklyAverage"`
}

// HandleToday handles GET /steps/today requests.
func (h *StepsHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.StepsToday(r.Context()))
}

// HandleHistory handles GET /steps/history?days=N requests. The records are
// zero-filled and ordered oldest first.
func (h *StepsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		days = n
	}
	if days > h.maxDays {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	records, res := h.deps.StepHistory(r.Context(), days)
	if !res.OK {
		writeFailure(w, op, res)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleAverage handles GET /steps/average requests.
func (h *StepsHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, averageResponse{WeeklyAverage: h.deps.WeeklyAverage(r.Context())})
}

// HandleMock handles POST /steps/mock requests.
func (h *StepsHandler) HandleMock(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_mock_steps"
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	records, res := h.deps.GenerateMockSteps(r.Context())
	if !res.OK {
		writeFailure(w, op, res)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

// HandleClear handles DELETE /steps requests.
func (h *StepsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_steps"
	if !methodAllowed(w, r, http.MethodDelete) {
		return
	}
	if res := h.deps.ClearSteps(r.Context()); !res.OK {
		writeFailure(w, op, res)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
