package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"purityscan/backend/internal/analytics/domain"
	"purityscan/backend/internal/analytics/service"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/server/middleware"
	userdomain "purityscan/backend/internal/user/domain"
)

type fakeSummaryRepo struct {
	summaries map[string]*domain.Summary
}

func (f *fakeSummaryRepo) SummaryByOrg(_ context.Context, orgID string) (*domain.Summary, error) {
	if s, ok := f.summaries[orgID]; ok {
		cp := *s
		return &cp, nil
	}
	return &domain.Summary{}, nil
}

func newServer(t *testing.T, ident *identitydomain.Identity, repo *fakeSummaryRepo) *httptest.Server {
	t.Helper()
	h := NewHandler(service.NewService(repo))
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		if ident != nil {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), ident)))
				})
			})
		}
		h.Routes(r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSummary(t *testing.T) {
	lastActivity := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	repo := &fakeSummaryRepo{summaries: map[string]*domain.Summary{
		"org-a": {Pending: 1, Processing: 2, Completed: 10, Failed: 3, AveragePurity: 91.5, LastActivityAt: &lastActivity},
	}}
	ident := &identitydomain.Identity{UserID: "u1", OrgID: "org-a", Role: userdomain.RoleMember}
	srv := newServer(t, ident, repo)

	resp, err := http.Get(srv.URL + "/v1/analytics/summary")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Completed != 10 || body.AveragePurity != 91.5 {
		t.Errorf("body = %+v", body)
	}
	if body.LastActivityAt == "" {
		t.Error("last_activity_at missing")
	}
}

func TestSummary_NoIdentity(t *testing.T) {
	srv := newServer(t, nil, &fakeSummaryRepo{})
	resp, err := http.Get(srv.URL + "/v1/analytics/summary")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
