package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
)

type memSnapshot struct {
	state *domain.AppState
}

func (m *memSnapshot) Load() (*domain.AppState, bool) {
	if m.state == nil {
		return nil, false
	}
	return m.state.Clone(), true
}

func (m *memSnapshot) Save(st *domain.AppState) {
	m.state = st.Clone()
}

// newTestStore seeds a store with the admin owner plus a two-level referral
// chain: alice referred bob, so approving someone bob referred pays both.
func newTestStore(t *testing.T) *state.Store {
	t.Helper()

	seed := domain.SeedState("admin", "admin@portal.test", "")
	now := time.Now().UTC()
	seed.Users = append(seed.Users,
		domain.User{
			ID:               "u-alice",
			Username:         "alice",
			Email:            "alice@portal.test",
			Password:         "pw",
			Role:             domain.RoleUser,
			ReferralCode:     "ALICE1",
			MembershipTier:   domain.TierGold,
			MembershipStatus: domain.MembershipActive,
			CreatedAt:        now,
		},
		domain.User{
			ID:               "u-bob",
			Username:         "bob",
			Email:            "bob@portal.test",
			Password:         "pw",
			Role:             domain.RoleUser,
			ReferralCode:     "BOB1",
			ReferredBy:       "u-alice",
			MembershipTier:   domain.TierSilver,
			MembershipStatus: domain.MembershipActive,
			Balance:          5000,
			CreatedAt:        now,
		},
	)
	return state.New(&memSnapshot{}, seed, slog.Default())
}

func TestSignupBindsSessionAndResolvesReferral(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())

	u, err := auth.Signup("carol", "carol@portal.test", "secret", "26599000", "BOB1")
	require.NoError(t, err)

	assert.Equal(t, "u-bob", u.ReferredBy)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, domain.MembershipInactive, u.MembershipStatus)
	assert.NotEmpty(t, u.ReferralCode)
	assert.True(t, strings.HasPrefix(u.ReferralCode, "CAROL"))

	st := store.Snapshot()
	assert.Equal(t, u.ID, st.CurrentUserID)
	require.NotNil(t, st.UserByID(u.ID))
}

func TestSignupRejectsDuplicatesCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())

	_, err := auth.Signup("ALICE", "fresh@portal.test", "pw", "", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = auth.Signup("fresh", "Alice@Portal.Test", "pw", "", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Nothing was appended by the rejected attempts.
	assert.Len(t, store.Snapshot().Users, 3)
}

func TestSignupRejectsUnknownReferralCode(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())

	_, err := auth.Signup("carol", "carol@portal.test", "pw", "", "NOPE99")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestSignupRequiresCoreFields(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())

	_, err := auth.Signup("", "carol@portal.test", "pw", "", "")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = auth.Signup("carol", "carol@portal.test", "", "", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestActivationApprovalPaysTwoLevels(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "BOB1")
	require.NoError(t, err)

	require.NoError(t, membership.SubmitActivation(ctx, carol.ID, domain.TierBronze, "https://img/proof.png", ""))

	st := store.Snapshot()
	pending := st.UserByID(carol.ID)
	assert.Equal(t, domain.MembershipPending, pending.MembershipStatus)
	assert.Equal(t, domain.TierBronze, pending.MembershipTier)
	assert.Equal(t, "https://img/proof.png", pending.ProofURL)

	require.NoError(t, membership.ApproveActivation(ctx, carol.ID))

	st = store.Snapshot()
	assert.Equal(t, domain.MembershipActive, st.UserByID(carol.ID).MembershipStatus)
	// Bronze costs 2000 MWK: 10% to bob (level 1), 5% to alice (level 2).
	assert.Equal(t, int64(5000+200), st.UserByID("u-bob").Balance)
	assert.Equal(t, int64(200), st.UserByID("u-bob").TotalEarnings)
	assert.Equal(t, int64(100), st.UserByID("u-alice").Balance)
	require.Len(t, st.Referrals, 2)
}

func TestActivationDoubleApprovalPaysOnce(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "BOB1")
	require.NoError(t, err)
	require.NoError(t, membership.SubmitActivation(ctx, carol.ID, domain.TierBronze, "", ""))
	require.NoError(t, membership.ApproveActivation(ctx, carol.ID))
	require.NoError(t, membership.ApproveActivation(ctx, carol.ID))

	st := store.Snapshot()
	assert.Len(t, st.Referrals, 2)
	assert.Equal(t, int64(5200), st.UserByID("u-bob").Balance)
}

func TestSubmitActivationGuards(t *testing.T) {
	store := newTestStore(t)
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	ctx := context.Background()

	err := membership.SubmitActivation(ctx, "u-bob", domain.MembershipTier("DIAMOND"), "", "")
	assert.ErrorIs(t, err, ErrUnknownTier)

	err = membership.SubmitActivation(ctx, "u-bob", domain.TierGold, "", "")
	assert.ErrorIs(t, err, ErrAlreadyActive)

	err = membership.SubmitActivation(ctx, "nope", domain.TierGold, "", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubmitActivationWhilePendingRejected(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "")
	require.NoError(t, err)
	require.NoError(t, membership.SubmitActivation(ctx, carol.ID, domain.TierBronze, "", ""))

	err = membership.SubmitActivation(ctx, carol.ID, domain.TierSilver, "", "")
	assert.ErrorIs(t, err, ErrActivationPending)
}

func TestRejectActivationClearsTier(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "")
	require.NoError(t, err)
	require.NoError(t, membership.SubmitActivation(ctx, carol.ID, domain.TierSilver, "proof", ""))
	require.NoError(t, membership.RejectActivation(ctx, carol.ID))

	u := store.Snapshot().UserByID(carol.ID)
	assert.Equal(t, domain.MembershipInactive, u.MembershipStatus)
	assert.Equal(t, domain.TierNone, u.MembershipTier)
	assert.Empty(t, u.ProofURL)

	// Nothing pending anymore: neither decision applies.
	assert.ErrorIs(t, membership.RejectActivation(ctx, carol.ID), ErrNotPending)
	assert.ErrorIs(t, membership.ApproveActivation(ctx, carol.ID), ErrNotPending)
}

func TestWithdrawalSubmitDebitsImmediately(t *testing.T) {
	store := newTestStore(t)
	withdrawals := NewWithdrawalService(store, slog.Default(), nil)
	ctx := context.Background()

	req, err := withdrawals.Submit(ctx, "u-bob", 2000, "265990001", "265990001", "airtel")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, req.Status)

	st := store.Snapshot()
	assert.Equal(t, int64(3000), st.UserByID("u-bob").Balance)
	require.Len(t, st.Withdrawals, 1)
}

func TestWithdrawalSubmitValidation(t *testing.T) {
	store := newTestStore(t)
	withdrawals := NewWithdrawalService(store, slog.Default(), nil)
	ctx := context.Background()

	_, err := withdrawals.Submit(ctx, "u-bob", 0, "", "", "airtel")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = withdrawals.Submit(ctx, "u-bob", 500, "", "", "airtel")
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)

	_, err = withdrawals.Submit(ctx, "u-bob", 99999, "", "", "airtel")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = withdrawals.Submit(ctx, "nobody", 2000, "", "", "airtel")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Reserved balance caps the total of queued requests.
	_, err = withdrawals.Submit(ctx, "u-bob", 3000, "", "", "airtel")
	require.NoError(t, err)
	_, err = withdrawals.Submit(ctx, "u-bob", 3000, "", "", "airtel")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestWithdrawalRequiresActiveMembership(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	withdrawals := NewWithdrawalService(store, slog.Default(), nil)
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "")
	require.NoError(t, err)
	// Give carol funds without activating her.
	require.NoError(t, store.Update("test_credit", func(st *domain.AppState) error {
		st.UserByID(carol.ID).Balance = 5000
		return nil
	}))

	_, err = withdrawals.Submit(ctx, carol.ID, 2000, "", "", "airtel")
	assert.ErrorIs(t, err, ErrMembershipNotActive)
}

func TestWithdrawalApproveAndReject(t *testing.T) {
	store := newTestStore(t)
	withdrawals := NewWithdrawalService(store, slog.Default(), nil)
	ctx := context.Background()

	first, err := withdrawals.Submit(ctx, "u-bob", 2000, "", "", "airtel")
	require.NoError(t, err)
	second, err := withdrawals.Submit(ctx, "u-bob", 1500, "", "", "tnm")
	require.NoError(t, err)

	require.NoError(t, withdrawals.Approve(ctx, first.ID, "paid", "https://img/receipt.png"))
	require.NoError(t, withdrawals.Reject(ctx, second.ID, "bad number"))

	st := store.Snapshot()
	assert.Equal(t, domain.WithdrawalApproved, st.WithdrawalByID(first.ID).Status)
	assert.Equal(t, "paid", st.WithdrawalByID(first.ID).AdminNote)
	assert.Equal(t, "https://img/receipt.png", st.WithdrawalByID(first.ID).ProofURL)
	assert.Equal(t, domain.WithdrawalRejected, st.WithdrawalByID(second.ID).Status)
	// 5000 - 2000 (approved, stays gone) - 1500 + 1500 (refunded on reject).
	assert.Equal(t, int64(3000), st.UserByID("u-bob").Balance)

	// Decisions are terminal.
	assert.ErrorIs(t, withdrawals.Approve(ctx, first.ID, "", ""), ErrWithdrawalNotPending)
	assert.ErrorIs(t, withdrawals.Reject(ctx, second.ID, ""), ErrWithdrawalNotPending)
}

func TestComplaintLifecycle(t *testing.T) {
	store := newTestStore(t)
	complaints := NewComplaintService(store, slog.Default())
	ctx := context.Background()

	_, err := complaints.Submit(ctx, "u-bob", "", "body", "")
	assert.ErrorIs(t, err, ErrMissingSubject)

	ticket, err := complaints.Submit(ctx, "u-bob", "payment missing", "I paid yesterday", "https://img/receipt.png")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintPending, ticket.Status)

	require.NoError(t, complaints.Reply(ctx, ticket.ID, "resolved, credited", ""))

	st := store.Snapshot()
	got := st.ComplaintByID(ticket.ID)
	assert.Equal(t, domain.ComplaintResolved, got.Status)
	assert.Equal(t, "resolved, credited", got.Reply)

	assert.ErrorIs(t, complaints.Reply(ctx, ticket.ID, "again", ""), ErrComplaintResolved)
}

func TestAdminUpdateUserKeepsUniqueness(t *testing.T) {
	store := newTestStore(t)
	admin := NewAdminService(store, slog.Default())
	ctx := context.Background()

	taken := "ALICE"
	err := admin.UpdateUser(ctx, "u-bob", UserEdits{Username: &taken})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	newName := "bobby"
	newPhone := "265881234"
	require.NoError(t, admin.UpdateUser(ctx, "u-bob", UserEdits{Username: &newName, Phone: &newPhone}))

	u := store.Snapshot().UserByID("u-bob")
	assert.Equal(t, "bobby", u.Username)
	assert.Equal(t, "265881234", u.Phone)
}

func TestAdminBanEndsSession(t *testing.T) {
	store := newTestStore(t)
	admin := NewAdminService(store, slog.Default())
	ctx := context.Background()

	_, err := store.Login("bob", "pw")
	require.NoError(t, err)
	require.Equal(t, "u-bob", store.Snapshot().CurrentUserID)

	require.NoError(t, admin.SetBanned(ctx, "u-bob", true))

	st := store.Snapshot()
	assert.True(t, st.UserByID("u-bob").Banned)
	assert.Empty(t, st.CurrentUserID)

	_, err = store.Login("bob", "pw")
	assert.ErrorIs(t, err, state.ErrAccountBanned)

	require.NoError(t, admin.SetBanned(ctx, "u-bob", false))
	_, err = store.Login("bob", "pw")
	assert.NoError(t, err)
}

func TestAdminUpdateSettings(t *testing.T) {
	store := newTestStore(t)
	admin := NewAdminService(store, slog.Default())
	ctx := context.Background()

	settings := domain.DefaultSettings()
	settings.MinWithdrawal = 2500
	settings.SiteNotice = "maintenance at midnight"
	require.NoError(t, admin.UpdateSettings(ctx, settings))

	st := store.Snapshot()
	assert.Equal(t, int64(2500), st.SystemSettings.MinWithdrawal)
	assert.Equal(t, "maintenance at midnight", st.SystemSettings.SiteNotice)
}

func TestAdminStatsAggregates(t *testing.T) {
	store := newTestStore(t)
	auth := NewAuthService(store, slog.Default())
	membership := NewMembershipService(store, slog.Default(), nil, nil)
	withdrawals := NewWithdrawalService(store, slog.Default(), nil)
	complaints := NewComplaintService(store, slog.Default())
	admin := NewAdminService(store, slog.Default())
	ctx := context.Background()

	carol, err := auth.Signup("carol", "carol@portal.test", "pw", "", "BOB1")
	require.NoError(t, err)
	require.NoError(t, membership.SubmitActivation(ctx, carol.ID, domain.TierBronze, "", ""))
	require.NoError(t, membership.ApproveActivation(ctx, carol.ID))

	dave, err := auth.Signup("dave", "dave@portal.test", "pw", "", "")
	require.NoError(t, err)
	require.NoError(t, membership.SubmitActivation(ctx, dave.ID, domain.TierSilver, "", ""))

	paid, err := withdrawals.Submit(ctx, "u-bob", 2000, "", "", "airtel")
	require.NoError(t, err)
	require.NoError(t, withdrawals.Approve(ctx, paid.ID, "", ""))
	_, err = withdrawals.Submit(ctx, "u-bob", 1000, "", "", "airtel")
	require.NoError(t, err)

	_, err = complaints.Submit(ctx, "u-alice", "question", "how do tiers work", "")
	require.NoError(t, err)

	stats := admin.Stats()
	assert.Equal(t, 5, stats.TotalUsers) // admin + alice + bob + carol + dave
	assert.Equal(t, 3, stats.ActiveMembers)
	assert.Equal(t, 1, stats.PendingActivations)
	assert.Equal(t, 1, stats.PendingWithdrawals)
	assert.Equal(t, 1, stats.OpenComplaints)
	assert.Equal(t, int64(300), stats.TotalCommissionsMWK)
	assert.Equal(t, int64(2000), stats.TotalPayoutsMWK)
}
