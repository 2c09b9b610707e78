package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yourorg/affiliateportal/internal/service"
	"github.com/yourorg/affiliateportal/internal/state"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps validation errors to the right status codes.
// Anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, state.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, state.ErrAccountBanned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrActivationPending),
		errors.Is(err, service.ErrAlreadyActive),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrWithdrawalNotPending),
		errors.Is(err, service.ErrComplaintResolved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidReferralCode),
		errors.Is(err, service.ErrUnknownTier),
		errors.Is(err, service.ErrMembershipNotActive),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrAmountBelowMinimum),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrMissingSubject):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
