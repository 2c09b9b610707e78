package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/service"
)

// UserEditRequest carries the optional admin edits for a user record.
type UserEditRequest struct {
	Username *string      `json:"username,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Phone    *string      `json:"phone,omitempty"`
	Role     *domain.Role `json:"role,omitempty"`
}

// BanRequest toggles an account's ban flag.
type BanRequest struct {
	Banned bool `json:"banned"`
}

// AdminHandler serves the moderation endpoints. All routes are mounted
// behind the admin-only middleware.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.admin.ListUsers()
	out := make([]UserProfile, 0, len(users))
	for i := range users {
		out = append(out, profileOf(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListWithdrawals handles GET /api/admin/withdrawals.
func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.ListWithdrawals())
}

// ListComplaints handles GET /api/admin/complaints.
func (h *AdminHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.ListComplaints())
}

// ListReferrals handles GET /api/admin/referrals.
func (h *AdminHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.ListReferrals())
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	edits := service.UserEdits{Username: req.Username, Email: req.Email, Phone: req.Phone, Role: req.Role}
	if err := h.admin.UpdateUser(r.Context(), r.PathValue("id"), edits); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SetBanned handles POST /api/admin/users/{id}/ban.
func (h *AdminHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	var req BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.admin.SetBanned(r.Context(), r.PathValue("id"), req.Banned); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"banned": req.Banned})
}

// UpdateSettings handles PUT /api/admin/settings.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.SystemSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if settings.IsZero() {
		writeError(w, http.StatusBadRequest, "settings cannot be empty")
		return
	}

	if err := h.admin.UpdateSettings(r.Context(), settings); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Stats())
}
