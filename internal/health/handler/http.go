// Package handler serves liveness and readiness for load balancers and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"purityscan/backend/internal/platform/httpx"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /healthz.
type Handler struct {
	pinger Pinger
}

// NewHandler returns a health handler. pinger may be nil; then the DB check
// is skipped and the endpoint reports liveness only.
func NewHandler(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
			httpx.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
