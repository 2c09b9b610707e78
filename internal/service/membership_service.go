package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/affiliateportal/internal/commission"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/observability/metrics"
	"github.com/yourorg/affiliateportal/internal/state"
)

// MembershipService handles tier activation: user submission, the advisory
// proof check, and the admin approve/reject decision that drives the
// commission engine.
type MembershipService struct {
	store    *state.Store
	logger   *slog.Logger
	notifier Notifier
	verifier ProofVerifier
}

// NewMembershipService creates the membership service. notifier and verifier
// may be nil.
func NewMembershipService(store *state.Store, logger *slog.Logger, notifier Notifier, verifier ProofVerifier) *MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MembershipService{store: store, logger: logger, notifier: notifier, verifier: verifier}
}

// SubmitActivation moves a user to PENDING with their chosen tier and payment
// proof. The AI proof check runs in the background and only ever logs its
// verdict; it cannot delay or block the submission.
func (m *MembershipService) SubmitActivation(ctx context.Context, userID string, tier domain.MembershipTier, proofURL, proofBase64 string) error {
	err := m.store.Update("activation_submit", func(st *domain.AppState) error {
		if _, ok := st.SystemSettings.TierPrice(tier); !ok {
			return ErrUnknownTier
		}
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		switch u.MembershipStatus {
		case domain.MembershipActive:
			return ErrAlreadyActive
		case domain.MembershipPending:
			return ErrActivationPending
		}
		u.MembershipTier = tier
		u.MembershipStatus = domain.MembershipPending
		u.ProofURL = proofURL
		return nil
	})
	if err != nil {
		return err
	}

	if m.verifier != nil && proofBase64 != "" {
		go func() {
			vctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			valid, msg := m.verifier.Verify(vctx, proofBase64)
			m.logger.Info("proof verification advisory",
				slog.String("user_id", userID),
				slog.Bool("valid", valid),
				slog.String("message", msg),
			)
		}()
	}
	go m.notifier.Notify(context.Background(),
		fmt.Sprintf("New %s activation request awaiting review", tier))
	return nil
}

// ApproveActivation transitions the user to ACTIVE and pays out the referral
// chain. The commission plan is computed against the pre-activation state and
// applied in the same update that flips the status, so either everything
// lands or nothing does. An already-active user re-approved by an admin just
// stays active: the engine yields nothing and no balance moves.
func (m *MembershipService) ApproveActivation(ctx context.Context, userID string) error {
	var plan commission.Result
	err := m.store.Update("activation_approve", func(st *domain.AppState) error {
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		if u.MembershipStatus == domain.MembershipInactive {
			return ErrNotPending
		}

		plan = commission.ComputeActivationCommissions(st, userID, time.Now().UTC())
		u.MembershipStatus = domain.MembershipActive
		commission.Apply(st, plan)

		metrics.SetActiveAffiliates(countActive(st))
		return nil
	})
	if err != nil {
		return err
	}

	for _, ref := range plan.Referrals {
		metrics.ObserveCommission(fmt.Sprintf("%d", ref.Level), ref.Commission)
		m.logger.Info("commission credited",
			slog.String("referrer_id", ref.ReferrerID),
			slog.String("referred_id", ref.ReferredID),
			slog.Int("level", ref.Level),
			slog.Int64("amount", ref.Commission),
		)
	}
	return nil
}

// RejectActivation returns a pending user to INACTIVE and clears the
// requested tier.
func (m *MembershipService) RejectActivation(ctx context.Context, userID string) error {
	return m.store.Update("activation_reject", func(st *domain.AppState) error {
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		if u.MembershipStatus != domain.MembershipPending {
			return ErrNotPending
		}
		u.MembershipStatus = domain.MembershipInactive
		u.MembershipTier = domain.TierNone
		u.ProofURL = ""
		return nil
	})
}

func countActive(st *domain.AppState) int {
	n := 0
	for i := range st.Users {
		if st.Users[i].MembershipStatus == domain.MembershipActive && st.Users[i].Role == domain.RoleUser {
			n++
		}
	}
	return n
}
