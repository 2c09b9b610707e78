package state

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/affiliateportal/internal/domain"
)

func TestNewFallsBackToSeedAndPersistsIt(t *testing.T) {
	snaps := &memSnapshot{}
	seed := seededState()

	store := New(snaps, seed, nil)

	assert.Equal(t, 1, snaps.saveCount(), "seed fallback is written back immediately")
	st := store.Snapshot()
	assert.Len(t, st.Users, 2)
}

func TestNewPrefersExistingSnapshot(t *testing.T) {
	snaps := &memSnapshot{}
	existing := seededState()
	existing.Users[1].Balance = 777
	snaps.Save(existing)

	store := New(snaps, domain.SeedState("admin", "", ""), nil)

	st := store.Snapshot()
	require.NotNil(t, st.UserByID("u-1"))
	assert.Equal(t, int64(777), st.UserByID("u-1").Balance)
}

func TestUpdateCommitsAndSaves(t *testing.T) {
	snaps := &memSnapshot{}
	store := New(snaps, seededState(), nil)
	before := snaps.saveCount()

	err := store.Update("edit", func(st *domain.AppState) error {
		st.UserByID("u-1").Balance = 100
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, before+1, snaps.saveCount(), "every committed mutation writes the snapshot")
	assert.Equal(t, int64(100), store.Snapshot().UserByID("u-1").Balance)
}

func TestUpdateFailureLeavesNoTrace(t *testing.T) {
	snaps := &memSnapshot{}
	store := New(snaps, seededState(), nil)
	before := snaps.saveCount()
	boom := errors.New("validation failed")

	err := store.Update("edit", func(st *domain.AppState) error {
		st.UserByID("u-1").Balance = 9999 // mutate, then fail
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, snaps.saveCount(), "rejected mutations never persist")
	assert.Zero(t, store.Snapshot().UserByID("u-1").Balance, "rejected mutations never become visible")
}

func TestSnapshotIsACopy(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)

	st := store.Snapshot()
	st.UserByID("u-1").Balance = 123456

	assert.Zero(t, store.Snapshot().UserByID("u-1").Balance, "callers must not alias live state")
}

func TestReconcileRunsOnce(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)

	first := &domain.AppState{Users: []domain.User{{ID: "remote-1"}}}
	second := &domain.AppState{Users: []domain.User{{ID: "remote-2"}}}
	store.Reconcile(first)
	store.Reconcile(second)

	st := store.Snapshot()
	assert.NotNil(t, st.UserByID("remote-1"))
	assert.Nil(t, st.UserByID("remote-2"), "the reconciler runs at most once per process")
}

func TestReconcilePreservesLocalWrites(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)

	// A mutation lands before the remote fetch resolves.
	_ = store.Update("edit", func(st *domain.AppState) error {
		st.UserByID("u-1").Balance = 500
		return nil
	})

	store.Reconcile(&domain.AppState{Users: []domain.User{
		{ID: "u-1", Balance: 0},
		{ID: "remote-only"},
	}})

	st := store.Snapshot()
	assert.Equal(t, int64(500), st.UserByID("u-1").Balance, "local wins for known users")
	assert.NotNil(t, st.UserByID("remote-only"))
}

func TestReconcileSavesLocallyWithoutPushing(t *testing.T) {
	snaps := &memSnapshot{}
	remote := &fakeRemote{}
	store := New(snaps, seededState(), nil)
	sched := NewPushScheduler(remote, store.Snapshot, nil, nil, testDebounce)
	store.AttachScheduler(sched)
	t.Cleanup(sched.Stop)
	before := snaps.saveCount()

	store.Reconcile(&domain.AppState{Users: []domain.User{{ID: "remote-1"}}})

	assert.Equal(t, before+1, snaps.saveCount(), "the merge result is committed to the snapshot store")
	settle()
	assert.Zero(t, remote.upsertCount(), "reconciliation triggers a save, never an upsert")
}

func TestLoginBindsSessionToUserRecord(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)

	u, err := store.Login("ZIONE", "pw") // identifier is case-insensitive
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.False(t, u.LastLoginAt.IsZero())

	session := store.SessionUser()
	require.NotNil(t, session)
	assert.Equal(t, "u-1", session.ID)
}

func TestLoginByEmail(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	u, err := store.Login("Zione@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	_, err := store.Login("zione", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, store.SessionUser())
}

func TestLoginRejectsUnknownIdentifier(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	_, err := store.Login("ghost", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordlessSeedAccountLogsIn(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	u, err := store.Login("admin", "anything")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestBannedUserCannotLogIn(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	_ = store.Update("ban", func(st *domain.AppState) error {
		st.UserByID("u-1").Banned = true
		return nil
	})

	_, err := store.Login("zione", "pw")
	assert.ErrorIs(t, err, ErrAccountBanned)
}

func TestLogoutClearsSession(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	_, err := store.Login("zione", "pw")
	require.NoError(t, err)

	store.Logout()
	assert.Nil(t, store.SessionUser())
}

func TestSessionTracksLiveRecordNotDetachedCopy(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	_, err := store.Login("zione", "pw")
	require.NoError(t, err)

	_ = store.Update("credit", func(st *domain.AppState) error {
		st.UserByID("u-1").Balance = 4200
		return nil
	})

	session := store.SessionUser()
	require.NotNil(t, session)
	assert.Equal(t, int64(4200), session.Balance, "session must resolve against the live users list")
}

func TestSubscribeReceivesCommittedEvents(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	events, cancel := store.Subscribe()
	defer cancel()

	_ = store.Update("edit", func(st *domain.AppState) error { return nil })

	select {
	case ev := <-events:
		assert.Equal(t, "edit", ev.Op)
	case <-time.After(time.Second):
		t.Fatal("expected a mutation event")
	}
}

func TestRejectedUpdateEmitsNoEvent(t *testing.T) {
	store := New(&memSnapshot{}, seededState(), nil)
	events, cancel := store.Subscribe()
	defer cancel()

	_ = store.Update("edit", func(st *domain.AppState) error { return errors.New("no") })

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
