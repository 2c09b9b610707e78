package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
	"github.com/yourorg/affiliateportal/pkg/cache"
)

const statsCacheTTL = 30 * time.Second

// UserEdits carries the fields an admin may change on an affiliate record.
// Nil pointers leave the field untouched.
type UserEdits struct {
	Username *string
	Email    *string
	Phone    *string
	Role     *domain.Role
}

// DashboardStats are the admin landing-page aggregates.
type DashboardStats struct {
	TotalUsers          int   `json:"totalUsers"`
	ActiveMembers       int   `json:"activeMembers"`
	PendingActivations  int   `json:"pendingActivations"`
	PendingWithdrawals  int   `json:"pendingWithdrawals"`
	OpenComplaints      int   `json:"openComplaints"`
	TotalCommissionsMWK int64 `json:"totalCommissionsMwk"`
	TotalPayoutsMWK     int64 `json:"totalPayoutsMwk"`
}

// AdminService implements the moderation surface: user edits, ban toggles,
// settings changes and dashboard aggregates.
type AdminService struct {
	store  *state.Store
	logger *slog.Logger
	stats  *cache.Cache[DashboardStats]
}

// NewAdminService creates the admin service.
func NewAdminService(store *state.Store, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{store: store, logger: logger, stats: cache.New[DashboardStats]()}
}

// ListUsers returns a copy of the affiliate roster.
func (a *AdminService) ListUsers() []domain.User {
	return a.store.Snapshot().Users
}

// ListWithdrawals returns a copy of all payout requests.
func (a *AdminService) ListWithdrawals() []domain.WithdrawalRequest {
	return a.store.Snapshot().Withdrawals
}

// ListComplaints returns a copy of all tickets.
func (a *AdminService) ListComplaints() []domain.Complaint {
	return a.store.Snapshot().Complaints
}

// ListReferrals returns a copy of the commission ledger.
func (a *AdminService) ListReferrals() []domain.Referral {
	return a.store.Snapshot().Referrals
}

// UpdateUser applies admin edits, keeping username/email uniqueness intact.
func (a *AdminService) UpdateUser(ctx context.Context, userID string, edits UserEdits) error {
	return a.store.Update("admin_edit_user", func(st *domain.AppState) error {
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		if edits.Username != nil {
			for i := range st.Users {
				if st.Users[i].ID != userID && strings.EqualFold(st.Users[i].Username, *edits.Username) {
					return ErrUsernameTaken
				}
			}
			u.Username = *edits.Username
		}
		if edits.Email != nil {
			for i := range st.Users {
				if st.Users[i].ID != userID && strings.EqualFold(st.Users[i].Email, *edits.Email) {
					return ErrEmailTaken
				}
			}
			u.Email = *edits.Email
		}
		if edits.Phone != nil {
			u.Phone = *edits.Phone
		}
		if edits.Role != nil {
			u.Role = *edits.Role
		}
		return nil
	})
}

// SetBanned toggles an affiliate's ban flag. Banned users cannot sign in;
// their records and history remain (there is no delete path).
func (a *AdminService) SetBanned(ctx context.Context, userID string, banned bool) error {
	err := a.store.Update("admin_ban", func(st *domain.AppState) error {
		u := st.UserByID(userID)
		if u == nil {
			return ErrUserNotFound
		}
		u.Banned = banned
		if banned && st.CurrentUserID == userID {
			st.CurrentUserID = ""
		}
		return nil
	})
	if err == nil {
		a.logger.Info("ban toggled", slog.String("user_id", userID), slog.Bool("banned", banned))
	}
	return err
}

// UpdateSettings replaces the system settings.
func (a *AdminService) UpdateSettings(ctx context.Context, settings domain.SystemSettings) error {
	err := a.store.Update("admin_settings", func(st *domain.AppState) error {
		st.SystemSettings = settings
		return nil
	})
	if err == nil {
		a.stats.Delete("dashboard")
	}
	return err
}

// Stats computes (and briefly caches) the dashboard aggregates.
func (a *AdminService) Stats() DashboardStats {
	if cached, ok := a.stats.Get("dashboard"); ok {
		return cached
	}

	st := a.store.Snapshot()
	out := DashboardStats{TotalUsers: len(st.Users)}
	for i := range st.Users {
		switch st.Users[i].MembershipStatus {
		case domain.MembershipActive:
			if st.Users[i].Role == domain.RoleUser {
				out.ActiveMembers++
			}
		case domain.MembershipPending:
			out.PendingActivations++
		}
	}
	for i := range st.Withdrawals {
		switch st.Withdrawals[i].Status {
		case domain.WithdrawalPending:
			out.PendingWithdrawals++
		case domain.WithdrawalApproved:
			out.TotalPayoutsMWK += st.Withdrawals[i].Amount
		}
	}
	for i := range st.Complaints {
		if st.Complaints[i].Status == domain.ComplaintPending {
			out.OpenComplaints++
		}
	}
	for i := range st.Referrals {
		out.TotalCommissionsMWK += st.Referrals[i].Commission
	}

	a.stats.Set("dashboard", out, statsCacheTTL)
	return out
}
