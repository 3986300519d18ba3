// Package handler exposes the analysis pipeline over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"purityscan/backend/internal/analysis/domain"
	"purityscan/backend/internal/analysis/service"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/platform/httpx"
	"purityscan/backend/internal/platform/rbac"
	"purityscan/backend/internal/spectrum"
)

// Handler serves the session and ingestion routes.
type Handler struct {
	registry    *service.Registry
	coordinator *service.Coordinator
	decoder     *spectrum.Decoder
	maxUpload   int64
}

// NewHandler returns the analysis HTTP handler.
func NewHandler(registry *service.Registry, coordinator *service.Coordinator, decoder *spectrum.Decoder, maxUploadBytes int64) *Handler {
	return &Handler{registry: registry, coordinator: coordinator, decoder: decoder, maxUpload: maxUploadBytes}
}

// Routes mounts the handler's routes on r. Callers must have passed the
// authentication middleware before reaching any of them.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/sessions", h.ListSessions)
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Post("/analyze", h.Analyze)
	r.Post("/analyze/upload", h.AnalyzeUpload)
}

type sessionResponse struct {
	ID          string          `json:"id"`
	DeviceID    string          `json:"device_id"`
	UserID      string          `json:"user_id,omitempty"`
	MaterialID  string          `json:"material_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	SampleType  string          `json:"sample_type,omitempty"`
	Status      domain.Status   `json:"status"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
	Metadata    domain.Metadata `json:"metadata"`
}

type resultResponse struct {
	ID               string   `json:"id"`
	SessionID        string   `json:"session_id"`
	PurityPercentage float64  `json:"purity_percentage"`
	ConfidenceScore  float64  `json:"confidence_score"`
	ModelVersion     string   `json:"model_version"`
	Contaminants     []string `json:"contaminants"`
	CreatedAt        string   `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func toSessionResponse(s *domain.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		UserID:     s.UserID,
		MaterialID: s.MaterialID,
		Name:       s.Name,
		SampleType: s.SampleType,
		Status:     s.Status,
		StartedAt:  s.StartedAt.Format(timeLayout),
		Metadata:   s.Metadata,
	}
	if s.CompletedAt != nil {
		resp.CompletedAt = s.CompletedAt.Format(timeLayout)
	}
	return resp
}

func toResultResponse(r *domain.Result) *resultResponse {
	if r == nil {
		return nil
	}
	contaminants := r.Contaminants
	if contaminants == nil {
		contaminants = []string{}
	}
	return &resultResponse{
		ID:               r.ID,
		SessionID:        r.SessionID,
		PurityPercentage: r.PurityPercentage,
		ConfidenceScore:  r.ConfidenceScore,
		ModelVersion:     r.ModelVersion,
		Contaminants:     contaminants,
		CreatedAt:        r.CreatedAt.Format(timeLayout),
	}
}

// ListSessions serves GET /v1/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			httpx.WriteError(w, apperr.New(apperr.CodeValidation, "limit must be a non-negative integer"))
			return
		}
	}
	sessions, err := h.registry.ListSessions(r.Context(), ident.OrgID, limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

type createSessionRequest struct {
	DeviceID   string `json:"device_id"`
	Name       string `json:"name"`
	SampleType string `json:"sample_type"`
}

// CreateSession serves POST /v1/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req createSessionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	sess, err := h.registry.CreateSession(r.Context(), ident, req.DeviceID, req.Name, req.SampleType)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// GetSession serves GET /v1/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	sess, result, err := h.registry.GetSession(r.Context(), ident.OrgID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"session":       toSessionResponse(sess),
		"latest_result": toResultResponse(result),
	})
}

type analyzeRequest struct {
	DeviceID    string    `json:"device_id"`
	SessionID   string    `json:"session_id"`
	Wavelengths []float64 `json:"wavelengths"`
	Intensities []float64 `json:"intensities"`
	Rerun       bool      `json:"rerun"`
}

// Analyze serves POST /v1/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req analyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	h.ingest(w, r, ident, service.IngestRequest{
		DeviceID:    req.DeviceID,
		SessionID:   req.SessionID,
		Wavelengths: req.Wavelengths,
		Intensities: req.Intensities,
		Rerun:       req.Rerun,
	})
}

// AnalyzeUpload serves POST /v1/analyze/upload: a multipart body with a file
// field plus format=csv|json, decoded before the coordinator is invoked.
func (h *Handler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	ident, err := rbac.RequireOrgMember(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+4096) // headroom for multipart framing
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.WriteError(w, apperr.Wrap(apperr.CodeValidation, "malformed multipart body or file too large", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, apperr.New(apperr.CodeValidation, "file field is required"))
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, apperr.Wrap(apperr.CodeValidation, "reading upload failed", err))
		return
	}
	wavelengths, intensities, err := h.decoder.Decode(raw, spectrum.Format(r.FormValue("format")))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	h.ingest(w, r, ident, service.IngestRequest{
		DeviceID:    r.FormValue("device_id"),
		SessionID:   r.FormValue("session_id"),
		Wavelengths: wavelengths,
		Intensities: intensities,
		Rerun:       r.FormValue("rerun") == "true",
	})
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request, ident *identitydomain.Identity, req service.IngestRequest) {
	out, err := h.coordinator.Ingest(r.Context(), ident, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"session": toSessionResponse(out.Session),
		"result":  toResultResponse(out.Result),
	})
}

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeValidation, "request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, "malformed json body", err)
	}
	return nil
}
