package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
)

// AuthService handles signup and session operations over the state store.
type AuthService struct {
	store  *state.Store
	logger *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(store *state.Store, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: store, logger: logger}
}

// Signup registers a new affiliate and binds the session to the new account.
// Username and email must be globally unique (case-insensitive); a referral
// code, when supplied, must resolve to an existing user and becomes the new
// account's referredBy back-reference.
func (s *AuthService) Signup(username, email, password, phone, referralCode string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	var created domain.User
	err := s.store.Update("signup", func(st *domain.AppState) error {
		for i := range st.Users {
			if strings.EqualFold(st.Users[i].Username, username) {
				return ErrUsernameTaken
			}
			if strings.EqualFold(st.Users[i].Email, email) {
				return ErrEmailTaken
			}
		}

		referredBy := ""
		if referralCode != "" {
			referrer := userByReferralCode(st, referralCode)
			if referrer == nil {
				return ErrInvalidReferralCode
			}
			referredBy = referrer.ID
		}

		now := time.Now().UTC()
		created = domain.User{
			ID:               uuid.NewString(),
			Username:         username,
			Email:            email,
			Password:         password,
			Phone:            phone,
			Role:             domain.RoleUser,
			ReferralCode:     generateReferralCode(st, username),
			ReferredBy:       referredBy,
			MembershipTier:   domain.TierNone,
			MembershipStatus: domain.MembershipInactive,
			CreatedAt:        now,
			LastLoginAt:      now,
		}
		st.Users = append(st.Users, created)
		st.CurrentUserID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("affiliate registered",
		slog.String("user_id", created.ID),
		slog.Bool("referred", created.ReferredBy != ""),
	)
	return &created, nil
}

// Login delegates to the session binder.
func (s *AuthService) Login(identifier, password string) (*domain.User, error) {
	return s.store.Login(identifier, password)
}

// Logout clears the device session.
func (s *AuthService) Logout() {
	s.store.Logout()
}

func userByReferralCode(st *domain.AppState, code string) *domain.User {
	for i := range st.Users {
		if strings.EqualFold(st.Users[i].ReferralCode, code) {
			return &st.Users[i]
		}
	}
	return nil
}

// generateReferralCode derives a short shareable code from the username and
// retries with fresh random suffixes until it is unique in the document.
func generateReferralCode(st *domain.AppState, username string) string {
	prefix := make([]rune, 0, 5)
	for _, r := range strings.ToUpper(username) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix = append(prefix, r)
		}
		if len(prefix) == 5 {
			break
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("REF")
	}

	for {
		suffix := strings.ToUpper(uuid.NewString()[:4])
		code := string(prefix) + suffix
		if userByReferralCode(st, code) == nil {
			return code
		}
	}
}
