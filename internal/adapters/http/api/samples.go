package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/stride/internal/app"
	model "github.com/okian/stride/internal/domain/model"
)

// SampleDependencies defines the interface for pedometer sample ingestion.
type SampleDependencies interface {
	IngestSample(ctx context.Context, sample model.StepSample) (duplicate bool, err error)
}

// SamplesHandler handles pushed pedometer samples.
type SamplesHandler struct {
	deps SampleDependencies
}

// NewSamplesHandler creates a new samples handler.
func NewSamplesHandler(deps SampleDependencies) *SamplesHandler {
	return &SamplesHandler{deps: deps}
}

// sampleRequest mirrors the OpenAPI schema for POST /pedometer/samples.
type sampleRequest struct {
	SampleID string `json:"sample_id"`
	Steps    *int   `json:"steps"`
	TS       string `json:"ts"`
}

func (s sampleRequest) toSample() (model.StepSample, error) {
	switch {
	case strings.TrimSpace(s.SampleID) == "":
		return model.StepSample{}, fmt.Errorf("%w: sample_id", errMissingField)
	case s.Steps == nil:
		return model.StepSample{}, fmt.Errorf("%w: steps", errMissingField)
	case *s.Steps < 0:
		return model.StepSample{}, errors.New("steps must not be negative")
	}
	sample := model.StepSample{SampleID: s.SampleID, Steps: *s.Steps}
	if s.TS != "" {
		ts, err := time.Parse(time.RFC3339, s.TS)
		if err != nil {
			return model.StepSample{}, errors.New("invalid ts; must be RFC3339")
		}
		sample.TS = ts
	}
	return sample, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostSample handles POST /pedometer/samples requests.
func (h *SamplesHandler) HandlePostSample(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sample"
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req sampleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sample, err := req.toSample()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	duplicate, err := h.deps.IngestSample(r.Context(), sample)
	switch {
	case err == nil && duplicate:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, service.ErrInvalidSample):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", NewKind(op, ErrNotStarted))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
