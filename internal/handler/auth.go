package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/security/auth"
	"github.com/yourorg/affiliateportal/internal/service"
)

const tokenTTL = 24 * time.Hour

// SignupRequest is the registration payload.
type SignupRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone,omitempty"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// LoginRequest accepts username or email as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// UserProfile is the client-safe projection of a user record. The password
// never leaves the server.
type UserProfile struct {
	ID               string                  `json:"id"`
	Username         string                  `json:"username"`
	Email            string                  `json:"email"`
	Phone            string                  `json:"phone,omitempty"`
	Role             domain.Role             `json:"role"`
	ReferralCode     string                  `json:"referralCode"`
	ReferredBy       string                  `json:"referredBy,omitempty"`
	Balance          int64                   `json:"balance"`
	TotalEarnings    int64                   `json:"totalEarnings"`
	MembershipTier   domain.MembershipTier   `json:"membershipTier"`
	MembershipStatus domain.MembershipStatus `json:"membershipStatus"`
	Banned           bool                    `json:"banned"`
	CreatedAt        time.Time               `json:"createdAt"`
}

func profileOf(u *domain.User) UserProfile {
	return UserProfile{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		ReferralCode:     u.ReferralCode,
		ReferredBy:       u.ReferredBy,
		Balance:          u.Balance,
		TotalEarnings:    u.TotalEarnings,
		MembershipTier:   u.MembershipTier,
		MembershipStatus: u.MembershipStatus,
		Banned:           u.Banned,
		CreatedAt:        u.CreatedAt,
	}
}

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	auth   *service.AuthService
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authSvc *service.AuthService, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, tokens: tokens, logger: logger}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.Signup(req.Username, req.Email, req.Password, req.Phone, req.ReferralCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Role, tokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{Token: token, User: profileOf(user)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.Login(req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Role, tokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Token: token, User: profileOf(user)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
