// Package commission computes two-tier referral payouts. The engine is a
// pure function over the shared document: it decides what would be credited
// and the state store applies the result atomically alongside the activation
// itself, so no partially credited state is ever observable.
package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/affiliateportal/internal/domain"
)

// Result is the commission plan for one activation: the referral records to
// append and the balance credits per referrer id. Both are empty when nothing
// is owed.
type Result struct {
	Referrals     []domain.Referral
	BalanceDeltas map[string]int64
}

// Empty reports whether the activation produces no payout.
func (r Result) Empty() bool {
	return len(r.Referrals) == 0 && len(r.BalanceDeltas) == 0
}

// ComputeActivationCommissions resolves the referral chain of the activating
// user and computes level-1 and level-2 commissions from the tier price and
// the configured percentages.
//
// Data-integrity anomalies never raise: an already-active user, a missing or
// dangling referredBy, a self-reference, or an unpriced tier short-circuit
// the affected step and the activation itself still succeeds. A user whose
// activation was already paid out (an existing referral names them as
// referred) yields nothing, so re-running the computation cannot double-pay.
func ComputeActivationCommissions(state *domain.AppState, activatedUserID string, now time.Time) Result {
	none := Result{}

	activated := state.UserByID(activatedUserID)
	if activated == nil || activated.MembershipStatus == domain.MembershipActive {
		return none
	}
	for i := range state.Referrals {
		if state.Referrals[i].ReferredID == activatedUserID {
			return none
		}
	}
	price, ok := state.SystemSettings.TierPrice(activated.MembershipTier)
	if !ok {
		return none
	}

	level1 := state.UserByID(activated.ReferredBy)
	if level1 == nil || level1.ID == activated.ID {
		return none
	}

	result := Result{BalanceDeltas: map[string]int64{}}
	credit := func(referrer *domain.User, level int, percent int) {
		amount := price * int64(percent) / 100
		if amount <= 0 {
			return
		}
		result.Referrals = append(result.Referrals, domain.Referral{
			ID:         uuid.NewString(),
			ReferrerID: referrer.ID,
			ReferredID: activated.ID,
			Level:      level,
			Commission: amount,
			Timestamp:  now,
		})
		result.BalanceDeltas[referrer.ID] += amount
	}

	credit(level1, 1, state.SystemSettings.Level1Percent)

	level2 := state.UserByID(level1.ReferredBy)
	if level2 != nil && level2.ID != activated.ID && level2.ID != level1.ID {
		credit(level2, 2, state.SystemSettings.Level2Percent)
	}

	if result.Empty() {
		return none
	}
	return result
}

// Apply credits the computed deltas into the document and appends the
// referral records. Balances and totalEarnings move together; totalEarnings
// never decreases because deltas are always positive.
func Apply(state *domain.AppState, result Result) {
	for id, delta := range result.BalanceDeltas {
		if u := state.UserByID(id); u != nil {
			u.Balance += delta
			u.TotalEarnings += delta
		}
	}
	state.Referrals = append(state.Referrals, result.Referrals...)
}
