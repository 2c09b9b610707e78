package domain

import "time"

// WithdrawalStatus tracks a payout request: PENDING -> APPROVED | REJECTED.
// Terminal states are sinks.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// WithdrawalRequest is a payout request. The amount is debited from the
// user's balance at submission time (pessimistic reservation); rejection
// credits it back in the same update that flips the status.
type WithdrawalRequest struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Amount      int64            `json:"amount"`
	PayoutPhone string           `json:"payoutPhone,omitempty"`
	WhatsApp    string           `json:"whatsapp,omitempty"`
	Method      string           `json:"method"`
	ProofURL    string           `json:"proofUrl,omitempty"`
	Status      WithdrawalStatus `json:"status"`
	AdminNote   string           `json:"adminNote,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}
