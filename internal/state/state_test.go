package state

import (
	"context"
	"sync"

	"github.com/yourorg/affiliateportal/internal/domain"
)

// memSnapshot is an in-memory domain.SnapshotStore for tests.
type memSnapshot struct {
	mu    sync.Mutex
	state *domain.AppState
	saves int
}

func (m *memSnapshot) Load() (*domain.AppState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, false
	}
	return m.state.Clone(), true
}

func (m *memSnapshot) Save(state *domain.AppState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	m.saves++
}

func (m *memSnapshot) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// fakeRemote records every document the scheduler hands to the adapter.
type fakeRemote struct {
	mu      sync.Mutex
	upserts []*domain.AppState
	fetched *domain.AppState
}

func (f *fakeRemote) Fetch(ctx context.Context) *domain.AppState {
	if f.fetched == nil {
		return nil
	}
	return f.fetched.Clone()
}

func (f *fakeRemote) Upsert(ctx context.Context, state *domain.AppState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, state.Clone())
	return nil
}

func (f *fakeRemote) HealthCheck(ctx context.Context) bool { return true }

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeRemote) allUpserts() []*domain.AppState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.AppState(nil), f.upserts...)
}

func (f *fakeRemote) lastUpsert() *domain.AppState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.upserts) == 0 {
		return nil
	}
	return f.upserts[len(f.upserts)-1]
}

func seededState() *domain.AppState {
	st := domain.SeedState("admin", "admin@portal.test", "")
	st.Users = append(st.Users, domain.User{
		ID: "u-1", Username: "zione", Email: "zione@example.com",
		Password: "pw", ReferralCode: "ZIONE1", Role: domain.RoleUser,
		MembershipStatus: domain.MembershipInactive, MembershipTier: domain.TierNone,
	})
	return st
}
