package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/affiliateportal/internal/security/middleware"
	"github.com/yourorg/affiliateportal/internal/state"
)

// ProfileHandler serves the authenticated user's own record and their
// downline summary.
type ProfileHandler struct {
	store  *state.Store
	logger *slog.Logger
}

// NewProfileHandler creates the profile handler.
func NewProfileHandler(store *state.Store, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: logger}
}

// ReferralSummary is one row of the user's downline view.
type ReferralSummary struct {
	Username   string `json:"username"`
	Level      int    `json:"level"`
	Commission int64  `json:"commission"`
}

// Me handles GET /api/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	st := h.store.Snapshot()
	u := st.UserByID(claims.UserID)
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, profileOf(u))
}

// Referrals handles GET /api/me/referrals: the commissions paid to the
// caller, joined with the referred user's name.
func (h *ProfileHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	st := h.store.Snapshot()
	out := []ReferralSummary{}
	for i := range st.Referrals {
		ref := &st.Referrals[i]
		if ref.ReferrerID != claims.UserID {
			continue
		}
		row := ReferralSummary{Level: ref.Level, Commission: ref.Commission}
		if referred := st.UserByID(ref.ReferredID); referred != nil {
			row.Username = referred.Username
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}
