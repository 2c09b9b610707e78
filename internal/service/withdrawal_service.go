package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
)

// WithdrawalService handles payout requests. The requested amount is debited
// the moment the request is accepted (pessimistic reservation), so a user can
// never queue withdrawals exceeding their balance.
type WithdrawalService struct {
	store    *state.Store
	logger   *slog.Logger
	notifier Notifier
}

// NewWithdrawalService creates the withdrawal service. notifier may be nil.
func NewWithdrawalService(store *state.Store, logger *slog.Logger, notifier Notifier) *WithdrawalService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WithdrawalService{store: store, logger: logger, notifier: notifier}
}

// Submit validates the request against the live document before it ever
// reaches the update entry point, then debits the balance and appends the
// PENDING request in one atomic update.
func (w *WithdrawalService) Submit(ctx context.Context, userID string, amount int64, payoutPhone, whatsapp, method string) (*domain.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Fast pre-check so obviously invalid requests never enter the write path.
	pre := w.store.Snapshot()
	if u := pre.UserByID(userID); u == nil {
		return nil, ErrUserNotFound
	} else if u.Balance < amount {
		return nil, ErrInsufficientBalance
	}

	var req domain.WithdrawalRequest
	err := w.store.Update("withdrawal_submit", func(st *domain.AppState) error {
		if amount < st.SystemSettings.MinWithdrawal {
			return ErrAmountBelowMinimum
		}
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		if u.Role == domain.RoleUser && u.MembershipStatus != domain.MembershipActive {
			return ErrMembershipNotActive
		}
		// Re-validated inside the serialized update: the pre-check races
		// with other mutations by design.
		if u.Balance < amount {
			return ErrInsufficientBalance
		}

		u.Balance -= amount
		req = domain.WithdrawalRequest{
			ID:          uuid.NewString(),
			UserID:      userID,
			Amount:      amount,
			PayoutPhone: payoutPhone,
			WhatsApp:    whatsapp,
			Method:      method,
			Status:      domain.WithdrawalPending,
			CreatedAt:   time.Now().UTC(),
		}
		st.Withdrawals = append(st.Withdrawals, req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("withdrawal submitted",
		slog.String("withdrawal_id", req.ID),
		slog.String("user_id", userID),
		slog.Int64("amount", amount),
	)
	go w.notifier.Notify(context.Background(),
		fmt.Sprintf("New withdrawal request: %d MWK via %s", amount, method))
	return &req, nil
}

// Approve marks a pending request as paid out. The balance was already
// reserved at submission, so approval only flips the status. proofURL, when
// present, is the hosted image of the payment receipt.
func (w *WithdrawalService) Approve(ctx context.Context, withdrawalID, adminNote, proofURL string) error {
	return w.store.Update("withdrawal_approve", func(st *domain.AppState) error {
		req := st.WithdrawalByID(withdrawalID)
		if req == nil {
			return ErrUserNotFound
		}
		if req.Status != domain.WithdrawalPending {
			return ErrWithdrawalNotPending
		}
		req.Status = domain.WithdrawalApproved
		req.AdminNote = adminNote
		if proofURL != "" {
			req.ProofURL = proofURL
		}
		return nil
	})
}

// Reject returns a pending request to the user: the status flip and the
// balance refund land in the same atomic update. Without the refund the
// pessimistic reservation would silently confiscate the reserved funds.
func (w *WithdrawalService) Reject(ctx context.Context, withdrawalID, adminNote string) error {
	return w.store.Update("withdrawal_reject", func(st *domain.AppState) error {
		req := st.WithdrawalByID(withdrawalID)
		if req == nil {
			return ErrUserNotFound
		}
		if req.Status != domain.WithdrawalPending {
			return ErrWithdrawalNotPending
		}
		req.Status = domain.WithdrawalRejected
		req.AdminNote = adminNote
		if u := st.UserByID(req.UserID); u != nil {
			u.Balance += req.Amount
		}
		return nil
	})
}
