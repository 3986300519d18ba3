package service

import (
	"context"
	"sync"
	"time"

	"purityscan/backend/internal/analysis/domain"
	devicedomain "purityscan/backend/internal/device/domain"
	"purityscan/backend/internal/inference"
)

// fakeSessionRepo is an in-memory Repository guarded by a mutex so concurrent
// transitions behave like the conditional SQL update.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	results  map[string][]*domain.Result
	// deviceOrg maps device IDs to org IDs for org-scoped reads.
	deviceOrg map[string]string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions:  map[string]*domain.Session{},
		results:   map[string][]*domain.Result{},
		deviceOrg: map[string]string{},
	}
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) GetByIDForOrg(_ context.Context, orgID, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || r.deviceOrg[s.DeviceID] != orgID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ListByOrg(_ context.Context, orgID string, limit int) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Session{}
	for _, s := range r.sessions {
		if r.deviceOrg[s.DeviceID] != orgID {
			continue
		}
		cp := *s
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) TransitionStatus(_ context.Context, id string, expected, next domain.Status, completedAt *time.Time, metadata *domain.Metadata) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != expected {
		return false, nil
	}
	s.Status = next
	if completedAt != nil {
		t := *completedAt
		s.CompletedAt = &t
	}
	if metadata != nil {
		s.Metadata = *metadata
	}
	return true, nil
}

func (r *fakeSessionRepo) CompleteWithResult(_ context.Context, id string, completedAt time.Time, metadata domain.Metadata, result *domain.Result) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != domain.StatusProcessing {
		return false, nil
	}
	s.Status = domain.StatusCompleted
	t := completedAt
	s.CompletedAt = &t
	s.Metadata = metadata
	cp := *result
	r.results[id] = append(r.results[id], &cp)
	return true, nil
}

func (r *fakeSessionRepo) CreateResult(_ context.Context, res *domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.results[res.SessionID] = append(r.results[res.SessionID], &cp)
	return nil
}

func (r *fakeSessionRepo) LatestResultBySession(_ context.Context, sessionID string) (*domain.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.results[sessionID]
	if len(list) == 0 {
		return nil, nil
	}
	cp := *list[len(list)-1]
	return &cp, nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*devicedomain.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[string]*devicedomain.Device{}}
}

func (r *fakeDeviceRepo) add(id, orgID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[id] = &devicedomain.Device{ID: id, OrgID: orgID, Name: id}
}

func (r *fakeDeviceRepo) GetByID(_ context.Context, id string) (*devicedomain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

// fakeAnalyzer returns a fixed result or error, optionally blocking until the
// context is done.
type fakeAnalyzer struct {
	result     *inference.Result
	err        error
	waitForCtx bool
	callCount  int
	mu         sync.Mutex
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, wavelengths, intensities []float64) (*inference.Result, error) {
	a.mu.Lock()
	a.callCount++
	a.mu.Unlock()
	if a.waitForCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if a.err != nil {
		return nil, a.err
	}
	cp := *a.result
	return &cp, nil
}

func (a *fakeAnalyzer) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callCount
}
