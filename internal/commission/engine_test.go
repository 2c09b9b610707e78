package commission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/affiliateportal/internal/domain"
)

func referralChainState() *domain.AppState {
	// alice refers bob, bob refers carol; carol is activating bronze (2000)
	return &domain.AppState{
		SystemSettings: domain.DefaultSettings(),
		Users: []domain.User{
			{ID: "alice", Username: "alice", ReferralCode: "ALICE1", Balance: 0},
			{ID: "bob", Username: "bob", ReferralCode: "BOB1", ReferredBy: "alice"},
			{ID: "carol", Username: "carol", ReferralCode: "CAROL1", ReferredBy: "bob",
				MembershipTier: domain.TierBronze, MembershipStatus: domain.MembershipPending},
		},
	}
}

func TestTwoLevelCommission(t *testing.T) {
	st := referralChainState()
	now := time.Now().UTC()

	res := ComputeActivationCommissions(st, "carol", now)

	require.Len(t, res.Referrals, 2)

	level1 := res.Referrals[0]
	assert.Equal(t, 1, level1.Level)
	assert.Equal(t, "bob", level1.ReferrerID)
	assert.Equal(t, "carol", level1.ReferredID)
	assert.Equal(t, int64(200), level1.Commission)

	level2 := res.Referrals[1]
	assert.Equal(t, 2, level2.Level)
	assert.Equal(t, "alice", level2.ReferrerID)
	assert.Equal(t, "carol", level2.ReferredID)
	assert.Equal(t, int64(100), level2.Commission)

	assert.Equal(t, int64(200), res.BalanceDeltas["bob"])
	assert.Equal(t, int64(100), res.BalanceDeltas["alice"])
	assert.NotContains(t, res.BalanceDeltas, "carol")
}

func TestApplyCreditsBalancesAndEarnings(t *testing.T) {
	st := referralChainState()
	res := ComputeActivationCommissions(st, "carol", time.Now())

	Apply(st, res)

	bob := st.UserByID("bob")
	alice := st.UserByID("alice")
	require.NotNil(t, bob)
	require.NotNil(t, alice)
	assert.Equal(t, int64(200), bob.Balance)
	assert.Equal(t, int64(200), bob.TotalEarnings)
	assert.Equal(t, int64(100), alice.Balance)
	assert.Equal(t, int64(100), alice.TotalEarnings)
	assert.Len(t, st.Referrals, 2)
}

func TestNoReferrerMeansNoCommission(t *testing.T) {
	st := referralChainState()
	st.UserByID("carol").ReferredBy = ""

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestChainTruncatesAtLevelOneWithoutGrandReferrer(t *testing.T) {
	st := referralChainState()
	st.UserByID("bob").ReferredBy = ""

	res := ComputeActivationCommissions(st, "carol", time.Now())
	require.Len(t, res.Referrals, 1)
	assert.Equal(t, 1, res.Referrals[0].Level)
	assert.Equal(t, "bob", res.Referrals[0].ReferrerID)
}

func TestDanglingReferrerIsAbsorbed(t *testing.T) {
	st := referralChainState()
	st.UserByID("carol").ReferredBy = "gone"

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestDanglingLevelTwoReferrerStopsAtLevelOne(t *testing.T) {
	st := referralChainState()
	st.UserByID("bob").ReferredBy = "gone"

	res := ComputeActivationCommissions(st, "carol", time.Now())
	require.Len(t, res.Referrals, 1)
	assert.Equal(t, 1, res.Referrals[0].Level)
}

func TestMissingTierPriceIsAbsorbed(t *testing.T) {
	st := referralChainState()
	delete(st.SystemSettings.TierPrices, domain.TierBronze)

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestAlreadyActiveUserYieldsNothing(t *testing.T) {
	st := referralChainState()
	st.UserByID("carol").MembershipStatus = domain.MembershipActive

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestExistingReferralBlocksDoublePayout(t *testing.T) {
	st := referralChainState()
	st.Referrals = []domain.Referral{
		{ID: "r1", ReferrerID: "bob", ReferredID: "carol", Level: 1, Commission: 200},
	}

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestSelfReferralIsIgnored(t *testing.T) {
	st := referralChainState()
	st.UserByID("carol").ReferredBy = "carol"

	res := ComputeActivationCommissions(st, "carol", time.Now())
	assert.True(t, res.Empty())
}

func TestUnknownUserYieldsNothing(t *testing.T) {
	st := referralChainState()
	res := ComputeActivationCommissions(st, "nobody", time.Now())
	assert.True(t, res.Empty())
}
