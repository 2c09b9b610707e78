package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemSettings is the admin-tunable portion of the shared document. It is
// replaced wholesale by the remote copy on reconciliation.
type SystemSettings struct {
	TierPrices      map[MembershipTier]int64 `json:"tierPrices"`
	Level1Percent   int                      `json:"level1Percent"`
	Level2Percent   int                      `json:"level2Percent"`
	MinWithdrawal   int64                    `json:"minWithdrawal"`
	SiteNotice      string                   `json:"siteNotice,omitempty"`
	SupportWhatsApp string                   `json:"supportWhatsapp,omitempty"`
}

// IsZero reports whether the settings were absent from a decoded document.
func (s SystemSettings) IsZero() bool {
	return s.TierPrices == nil && s.Level1Percent == 0 && s.Level2Percent == 0 &&
		s.MinWithdrawal == 0 && s.SiteNotice == "" && s.SupportWhatsApp == ""
}

// TierPrice returns the activation price for a tier, or false when the tier
// has no configured price.
func (s SystemSettings) TierPrice(tier MembershipTier) (int64, bool) {
	price, ok := s.TierPrices[tier]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}

// DefaultSettings is the seed configuration used until an admin (or the
// remote document) overrides it. Prices are MWK.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		TierPrices: map[MembershipTier]int64{
			TierBronze:   2000,
			TierSilver:   5000,
			TierGold:     10000,
			TierPlatinum: 20000,
		},
		Level1Percent: 10,
		Level2Percent: 5,
		MinWithdrawal: 1000,
	}
}

// AppState is the single shared document. The process owns it exclusively;
// all mutation goes through the state store's one update entry point, which
// replaces the document as a whole. CurrentUserID is the session binder's
// pointer into Users and is never sent to the remote store.
type AppState struct {
	CurrentUserID  string              `json:"currentUser,omitempty"`
	SystemSettings SystemSettings      `json:"systemSettings"`
	Users          []User              `json:"users"`
	Withdrawals    []WithdrawalRequest `json:"withdrawals"`
	Referrals      []Referral          `json:"referrals"`
	Complaints     []Complaint         `json:"complaints"`
}

// UserByID returns a pointer into Users, or nil.
func (s *AppState) UserByID(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// CurrentUser resolves the session pointer against Users.
func (s *AppState) CurrentUser() *User {
	if s.CurrentUserID == "" {
		return nil
	}
	return s.UserByID(s.CurrentUserID)
}

// WithdrawalByID returns a pointer into Withdrawals, or nil.
func (s *AppState) WithdrawalByID(id string) *WithdrawalRequest {
	for i := range s.Withdrawals {
		if s.Withdrawals[i].ID == id {
			return &s.Withdrawals[i]
		}
	}
	return nil
}

// ComplaintByID returns a pointer into Complaints, or nil.
func (s *AppState) ComplaintByID(id string) *Complaint {
	for i := range s.Complaints {
		if s.Complaints[i].ID == id {
			return &s.Complaints[i]
		}
	}
	return nil
}

// Clone deep-copies the document. Updates are applied to a clone and swapped
// in on success so a failed mutation never leaves partial state behind.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		CurrentUserID:  s.CurrentUserID,
		SystemSettings: s.SystemSettings,
	}
	if s.SystemSettings.TierPrices != nil {
		prices := make(map[MembershipTier]int64, len(s.SystemSettings.TierPrices))
		for k, v := range s.SystemSettings.TierPrices {
			prices[k] = v
		}
		out.SystemSettings.TierPrices = prices
	}
	if s.Users != nil {
		out.Users = append([]User(nil), s.Users...)
	}
	if s.Withdrawals != nil {
		out.Withdrawals = append([]WithdrawalRequest(nil), s.Withdrawals...)
	}
	if s.Referrals != nil {
		out.Referrals = append([]Referral(nil), s.Referrals...)
	}
	if s.Complaints != nil {
		out.Complaints = append([]Complaint(nil), s.Complaints...)
	}
	return out
}

// ForRemote returns the document as it may leave the device: a copy with the
// session pointer stripped. Session is per-device and never persisted
// remotely.
func (s *AppState) ForRemote() *AppState {
	out := s.Clone()
	out.CurrentUserID = ""
	return out
}

// Degenerate reports whether the document holds no real affiliate: an empty
// users list, or only the bootstrap owner account. A degenerate document must
// never overwrite a populated remote one.
func (s *AppState) Degenerate() bool {
	if len(s.Users) == 0 {
		return true
	}
	if len(s.Users) == 1 && s.Users[0].Role == RoleAdmin {
		return true
	}
	return false
}

// SeedState builds the fallback document used when no local snapshot exists
// (or the snapshot is unreadable): a single bootstrap administrator.
func SeedState(adminUsername, adminEmail, adminPassword string) *AppState {
	if adminUsername == "" {
		adminUsername = "admin"
	}
	owner := User{
		ID:               uuid.NewString(),
		Username:         adminUsername,
		Email:            adminEmail,
		Password:         adminPassword,
		Role:             RoleAdmin,
		ReferralCode:     "OWNER",
		MembershipTier:   TierNone,
		MembershipStatus: MembershipActive,
		CreatedAt:        time.Now().UTC(),
	}
	return &AppState{
		SystemSettings: DefaultSettings(),
		Users:          []User{owner},
	}
}

// SnapshotStore is the durable local cache holding the whole document as one
// JSON blob. Load tolerates corruption by reporting the snapshot as absent;
// Save never raises to the caller (failures are logged and swallowed).
type SnapshotStore interface {
	Load() (*AppState, bool)
	Save(state *AppState)
}

// RemoteStore is the best-effort adapter over one named remote document.
// Fetch returns nil on any transport or missing-document error and never
// panics past its boundary; the returned document never carries a session
// pointer. Upsert refuses degenerate documents. HealthCheck is for operator
// tooling only, never the data path.
type RemoteStore interface {
	Fetch(ctx context.Context) *AppState
	Upsert(ctx context.Context, state *AppState) error
	HealthCheck(ctx context.Context) bool
}
