package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/security/middleware"
	"github.com/yourorg/affiliateportal/internal/service"
	"github.com/yourorg/affiliateportal/internal/state"
)

// WithdrawalSubmitRequest is the payout request payload.
type WithdrawalSubmitRequest struct {
	Amount      int64  `json:"amount"`
	PayoutPhone string `json:"payoutPhone"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	Method      string `json:"method"`
}

// DecisionRequest carries the admin note for approve/reject endpoints.
// Approvals may attach the hosted payment receipt.
type DecisionRequest struct {
	Note     string `json:"note,omitempty"`
	ProofURL string `json:"proofUrl,omitempty"`
}

// WithdrawalHandler serves payout submission, the user's own history, and
// the admin decisions.
type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
	store       *state.Store
	logger      *slog.Logger
}

// NewWithdrawalHandler creates the withdrawal handler.
func NewWithdrawalHandler(withdrawals *service.WithdrawalService, store *state.Store, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, store: store, logger: logger}
}

// Submit handles POST /api/withdrawals.
func (h *WithdrawalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req WithdrawalSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.withdrawals.Submit(r.Context(), claims.UserID, req.Amount, req.PayoutPhone, req.WhatsApp, req.Method)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMine handles GET /api/withdrawals: the caller's own requests.
func (h *WithdrawalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	st := h.store.Snapshot()
	out := []domain.WithdrawalRequest{}
	for i := range st.Withdrawals {
		if st.Withdrawals[i].UserID == claims.UserID {
			out = append(out, st.Withdrawals[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Approve handles POST /api/admin/withdrawals/{id}/approve.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.withdrawals.Approve(r.Context(), r.PathValue("id"), req.Note, req.ProofURL); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// Reject handles POST /api/admin/withdrawals/{id}/reject.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.withdrawals.Reject(r.Context(), r.PathValue("id"), req.Note); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
