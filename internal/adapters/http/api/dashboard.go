package api

import (
	"context"
	"net/http"

	service "github.com/okian/stride/internal/app"
)

// DashboardDependencies exposes the home screen summary.
type DashboardDependencies interface {
	Refresh(ctx context.Context) service.Dashboard
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleDashboard handles GET /dashboard requests with a freshly loaded
// summary.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Refresh(r.Context()))
}
