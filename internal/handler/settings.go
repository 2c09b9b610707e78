package handler

import (
	"net/http"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
)

// PublicSettings is the unauthenticated view of the system settings: what a
// visitor needs to see tier pricing and reach support.
type PublicSettings struct {
	TierPrices      map[domain.MembershipTier]int64 `json:"tierPrices"`
	MinWithdrawal   int64                           `json:"minWithdrawal"`
	SiteNotice      string                          `json:"siteNotice,omitempty"`
	SupportWhatsApp string                          `json:"supportWhatsApp,omitempty"`
}

// SettingsHandler serves GET /api/settings.
type SettingsHandler struct {
	store *state.Store
}

// NewSettingsHandler creates the settings handler.
func NewSettingsHandler(store *state.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.store.Snapshot().SystemSettings
	writeJSON(w, http.StatusOK, PublicSettings{
		TierPrices:      s.TierPrices,
		MinWithdrawal:   s.MinWithdrawal,
		SiteNotice:      s.SiteNotice,
		SupportWhatsApp: s.SupportWhatsApp,
	})
}
