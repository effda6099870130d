package api

import (
	"context"
	"net/http"
)

// RefreshDependencies defines the interface for refresh requests.
type RefreshDependencies interface {
	RequestRefresh(ctx context.Context) bool
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

// HandlePostRefresh handles POST /refresh requests. The refresh itself runs
// asynchronously after the debounce window.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}
	if !h.deps.RequestRefresh(r.Context()) {
		writeError(w, http.StatusTooManyRequests, "backpressure", opError(op, ErrBackpressure, "refresh queue is full"))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
