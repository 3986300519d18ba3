// Package handler exposes the org analytics roll-up over HTTP/JSON.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"purityscan/backend/internal/analytics/domain"
	"purityscan/backend/internal/analytics/service"
	"purityscan/backend/internal/platform/httpx"
	"purityscan/backend/internal/platform/rbac"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the analytics routes on r, behind the authentication middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/analytics/summary", h.Summary)
}

type summaryResponse struct {
	Pending        int64   `json:"pending"`
	Processing     int64   `json:"processing"`
	Completed      int64   `json:"completed"`
	Failed         int64   `json:"failed"`
	AveragePurity  float64 `json:"average_purity"`
	LastActivityAt string  `json:"last_activity_at,omitempty"`
}

func toSummaryResponse(s *domain.Summary) summaryResponse {
	resp := summaryResponse{
		Pending:       s.Pending,
		Processing:    s.Processing,
		Completed:     s.Completed,
		Failed:        s.Failed,
		AveragePurity: s.AveragePurity,
	}
	if s.LastActivityAt != nil {
		resp.LastActivityAt = s.LastActivityAt.Format("2006-01-02T15:04:05.000Z07:00")
	}
	return resp
}

// Summary serves GET /v1/analytics/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	summary, err := h.svc.Summary(r.Context(), ident.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
}
