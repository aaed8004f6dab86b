package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	model "github.com/okian/stride/internal/domain/model"
)

// SessionDependencies defines sign-in state and profile operations.
type SessionDependencies interface {
	CurrentIdentity() (model.Identity, bool)
	SignIn(id model.Identity)
	SignOut()
	CurrentUser(ctx context.Context) (model.User, bool)
	UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, model.Result)
}

// SessionHandler handles the signed-in identity and its profile.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type sessionResponse struct {
	SignedIn bool        `json:"signedIn"`
	User     *model.User `json:"user,omitempty"`
}

// HandleSession handles GET, POST and DELETE /session requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"
	switch r.Method {
	case http.MethodGet:
		h.writeSession(w, r)
	case http.MethodPost:
		var id model.Identity
		if err := decodeJSON(r, &id); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(id.ID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("%w: id", errMissingField)))
			return
		}
		h.deps.SignIn(id)
		h.writeSession(w, r)
	case http.MethodDelete:
		h.deps.SignOut()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.deps.CurrentIdentity(); !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	user, ok := h.deps.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SignedIn: true, User: &user})
}

// HandleProfile handles PATCH /profile requests.
func (h *SessionHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_profile"
	if !methodAllowed(w, r, http.MethodPatch) {
		return
	}
	var patch model.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	user, res := h.deps.UpdateProfile(r.Context(), patch)
	if !res.OK {
		writeFailure(w, op, res)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
