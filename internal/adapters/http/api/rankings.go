package api

import (
	"context"
	"fmt"
	"net/http"

	model "github.com/okian/stride/internal/domain/model"
)

// RankingDependencies defines the leaderboard operations.
type RankingDependencies interface {
	UserRankings(ctx context.Context) ([]model.RankingEntry, model.Result)
	UpdateRankingSteps(ctx context.Context, steps int) model.Result
	GenerateDemoRankings(ctx context.Context) model.Result
}

// RankingsHandler handles leaderboard requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

type updateStepsRequest struct {
	Steps *int `json:"steps"`
}

// HandleGetRankings handles GET /rankings requests. The first read for a
// user seeds the leaderboard.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	entries, res := h.deps.UserRankings(r.Context())
	if !res.OK {
		writeFailure(w, op, res)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleUpdateSteps handles POST /rankings/steps requests and answers with
// the re-ranked leaderboard.
func (h *RankingsHandler) HandleUpdateSteps(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_ranking_steps"
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req updateStepsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Steps == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("%w: steps", errMissingField)))
		return
	}
	if *req.Steps < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if res := h.deps.UpdateRankingSteps(r.Context(), *req.Steps); !res.OK {
		writeFailure(w, op, res)
		return
	}
	h.writeCurrent(w, r, op)
}

// HandleDemo handles POST /rankings/demo requests.
func (h *RankingsHandler) HandleDemo(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_demo_rankings"
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	if res := h.deps.GenerateDemoRankings(r.Context()); !res.OK {
		writeFailure(w, op, res)
		return
	}
	h.writeCurrent(w, r, op)
}

func (h *RankingsHandler) writeCurrent(w http.ResponseWriter, r *http.Request, op string) {
	entries, res := h.deps.UserRankings(r.Context())
	if !res.OK {
		writeFailure(w, op, res)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
