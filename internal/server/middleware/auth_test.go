package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	"purityscan/backend/internal/platform/httpx"
	userdomain "purityscan/backend/internal/user/domain"
)

type fakeGate struct {
	bearer map[string]*identitydomain.Identity
	keys   map[string]*identitydomain.Identity
}

func (g *fakeGate) AuthenticateBearer(_ context.Context, token string) (*identitydomain.Identity, error) {
	if id, ok := g.bearer[token]; ok {
		return id, nil
	}
	return nil, apperr.New(apperr.CodeUnauthenticated, "invalid access token")
}

func (g *fakeGate) AuthenticateDeviceKey(_ context.Context, key string) (*identitydomain.Identity, error) {
	if id, ok := g.keys[key]; ok {
		return id, nil
	}
	return nil, apperr.New(apperr.CodeUnauthenticated, "invalid device key")
}

func newAuthTestServer(gate *fakeGate) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := GetIdentity(r.Context())
		if !ok {
			http.Error(w, "no identity in context", http.StatusInternalServerError)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"org_id": ident.OrgID})
	})
	return Authenticate(gate, nil)(inner)
}

func TestAuthenticate_Bearer(t *testing.T) {
	gate := &fakeGate{bearer: map[string]*identitydomain.Identity{
		"good-token": {UserID: "u1", OrgID: "org-a", Role: userdomain.RoleMember},
	}}
	srv := newAuthTestServer(gate)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["org_id"] != "org-a" {
		t.Errorf("org_id = %q, want org-a", body["org_id"])
	}
}

func TestAuthenticate_DeviceKey(t *testing.T) {
	gate := &fakeGate{keys: map[string]*identitydomain.Identity{
		"dev1.secret": {DeviceID: "dev1", OrgID: "org-a", Role: userdomain.RoleDevice},
	}}
	srv := newAuthTestServer(gate)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
	req.Header.Set("X-Device-Key", "dev1.secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	srv := newAuthTestServer(&fakeGate{})

	tests := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized},
		{"malformed authorization", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"unknown device key", func(r *http.Request) { r.Header.Set("X-Device-Key", "ghost.key") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
			tt.header(req)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body httpx.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error envelope: %v (%s)", err, rec.Body)
			}
			if body.Error.Code != string(apperr.CodeUnauthenticated) {
				t.Errorf("code = %q, want unauthenticated", body.Error.Code)
			}
		})
	}
}

func TestAuthenticate_DeviceKeyTakesPrecedence(t *testing.T) {
	gate := &fakeGate{
		keys: map[string]*identitydomain.Identity{
			"dev1.secret": {DeviceID: "dev1", OrgID: "org-dev", Role: userdomain.RoleDevice},
		},
		bearer: map[string]*identitydomain.Identity{
			"tok": {UserID: "u1", OrgID: "org-user", Role: userdomain.RoleMember},
		},
	}
	srv := newAuthTestServer(gate)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("X-Device-Key", "dev1.secret")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["org_id"] != "org-dev" {
		t.Errorf("org_id = %q, want device identity org-dev", body["org_id"])
	}
}
