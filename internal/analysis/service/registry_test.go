package service

import (
	"context"
	"testing"

	"purityscan/backend/internal/analysis/domain"
	identitydomain "purityscan/backend/internal/identity/domain"
	"purityscan/backend/internal/platform/apperr"
	userdomain "purityscan/backend/internal/user/domain"
)

func memberIdentity(orgID string) *identitydomain.Identity {
	return &identitydomain.Identity{UserID: "user-1", OrgID: orgID, Role: userdomain.RoleMember}
}

func newTestRegistry() (*Registry, *fakeSessionRepo, *fakeDeviceRepo) {
	sessions := newFakeSessionRepo()
	devices := newFakeDeviceRepo()
	return NewRegistry(sessions, devices, nil, nil), sessions, devices
}

func TestCreateSession_Pending(t *testing.T) {
	reg, sessions, devices := newTestRegistry()
	devices.add("dev-1", "org-a")
	sessions.deviceOrg["dev-1"] = "org-a"

	sess, err := reg.CreateSession(context.Background(), memberIdentity("org-a"), "dev-1", "batch 7", "powder")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Status != domain.StatusPending {
		t.Errorf("status = %q, want pending", sess.Status)
	}
	if sess.DeviceID != "dev-1" || sess.UserID != "user-1" {
		t.Errorf("session = %+v, want dev-1/user-1", sess)
	}
	if sess.StartedAt.IsZero() {
		t.Error("started_at not set")
	}
	stored, _ := sessions.GetByID(context.Background(), sess.ID)
	if stored == nil {
		t.Fatal("session not persisted")
	}
}

func TestCreateSession_UnknownDevice(t *testing.T) {
	reg, _, _ := newTestRegistry()
	_, err := reg.CreateSession(context.Background(), memberIdentity("org-a"), "ghost", "", "")
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestCreateSession_CrossOrgDevice(t *testing.T) {
	reg, sessions, devices := newTestRegistry()
	devices.add("dev-b", "org-b")
	sessions.deviceOrg["dev-b"] = "org-b"

	_, err := reg.CreateSession(context.Background(), memberIdentity("org-a"), "dev-b", "", "")
	if !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if list, _ := sessions.ListByOrg(context.Background(), "org-b", 10); len(list) != 0 {
		t.Error("cross-org create must not persist a session")
	}
}

func TestListSessions_EmptyOrg(t *testing.T) {
	reg, _, _ := newTestRegistry()
	list, err := reg.ListSessions(context.Background(), "org-empty", 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("list = %v, want empty slice", list)
	}
}

func TestListSessions_ScopedToOrg(t *testing.T) {
	reg, sessions, devices := newTestRegistry()
	devices.add("dev-a", "org-a")
	devices.add("dev-b", "org-b")
	sessions.deviceOrg["dev-a"] = "org-a"
	sessions.deviceOrg["dev-b"] = "org-b"
	for _, dev := range []string{"dev-a", "dev-b"} {
		if _, err := reg.CreateSession(context.Background(), memberIdentity(sessions.deviceOrg[dev]), dev, "", ""); err != nil {
			t.Fatalf("CreateSession(%s): %v", dev, err)
		}
	}

	list, err := reg.ListSessions(context.Background(), "org-a", 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 1 || list[0].DeviceID != "dev-a" {
		t.Errorf("list = %v, want only org-a session", list)
	}
}

func TestGetSession_CrossOrgIndistinguishableFromMissing(t *testing.T) {
	reg, sessions, devices := newTestRegistry()
	devices.add("dev-a", "org-a")
	sessions.deviceOrg["dev-a"] = "org-a"
	sess, err := reg.CreateSession(context.Background(), memberIdentity("org-a"), "dev-a", "", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	_, _, errCross := reg.GetSession(context.Background(), "org-b", sess.ID)
	_, _, errMissing := reg.GetSession(context.Background(), "org-b", "no-such-session")
	if apperr.CodeOf(errCross) != apperr.CodeNotFound || apperr.CodeOf(errMissing) != apperr.CodeNotFound {
		t.Fatalf("cross = %v, missing = %v, want both not_found", errCross, errMissing)
	}
	if errCross.Error() != errMissing.Error() {
		t.Errorf("cross-org error %q leaks existence vs %q", errCross, errMissing)
	}
}

func TestGetSession_WithLatestResult(t *testing.T) {
	reg, sessions, devices := newTestRegistry()
	devices.add("dev-a", "org-a")
	sessions.deviceOrg["dev-a"] = "org-a"
	sess, _ := reg.CreateSession(context.Background(), memberIdentity("org-a"), "dev-a", "", "")
	_ = sessions.CreateResult(context.Background(), &domain.Result{ID: "r1", SessionID: sess.ID, PurityPercentage: 91, ConfidenceScore: 0.8, ModelVersion: "mock"})
	_ = sessions.CreateResult(context.Background(), &domain.Result{ID: "r2", SessionID: sess.ID, PurityPercentage: 93, ConfidenceScore: 0.9, ModelVersion: "mock"})

	got, result, err := reg.GetSession(context.Background(), "org-a", sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("session id = %q, want %q", got.ID, sess.ID)
	}
	if result == nil || result.ID != "r2" {
		t.Errorf("result = %+v, want latest r2", result)
	}
}
