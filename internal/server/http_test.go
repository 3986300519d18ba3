package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	userdomain "purityscan/backend/internal/user/domain"
)

// staticGate accepts one bearer token and rejects everything else.
type staticGate struct {
	token string
	ident *identitydomain.Identity
}

func (g *staticGate) AuthenticateBearer(_ context.Context, token string) (*identitydomain.Identity, error) {
	if token == g.token {
		cp := *g.ident
		return &cp, nil
	}
	return nil, apperr.New(apperr.CodeUnauthenticated, "invalid token")
}

func (g *staticGate) AuthenticateDeviceKey(_ context.Context, _ string) (*identitydomain.Identity, error) {
	return nil, apperr.New(apperr.CodeUnauthenticated, "invalid device key")
}

func newRouterServer(t *testing.T) *httptest.Server {
	t.Helper()
	gate := &staticGate{
		token: "good-token",
		ident: &identitydomain.Identity{UserID: "u1", OrgID: "org-a", Role: userdomain.RoleMember},
	}
	srv := httptest.NewServer(NewRouter(Deps{Gate: gate, MaxUploadBytes: 1 << 20}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthzIsPublic(t *testing.T) {
	srv := newRouterServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestV1RequiresCredentials(t *testing.T) {
	srv := newRouterServer(t)
	resp, err := http.Get(srv.URL + "/v1/sessions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestV1RejectsBadToken(t *testing.T) {
	srv := newRouterServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer stale")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
