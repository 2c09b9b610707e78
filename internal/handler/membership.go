package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/security/middleware"
	"github.com/yourorg/affiliateportal/internal/service"
)

// ImageUploader stores a user-supplied image and returns its hosted URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, source, publicID string) (string, error)
}

// ActivationRequest is the tier activation payload. Proof may arrive as an
// already-hosted URL or as inline base64 data to be uploaded server side.
type ActivationRequest struct {
	Tier        domain.MembershipTier `json:"tier"`
	ProofURL    string                `json:"proofUrl,omitempty"`
	ProofBase64 string                `json:"proofBase64,omitempty"`
}

// MembershipHandler serves activation submission and the admin decision
// endpoints.
type MembershipHandler struct {
	membership *service.MembershipService
	uploader   ImageUploader
	logger     *slog.Logger
}

// NewMembershipHandler creates the membership handler. uploader may be nil;
// inline proofs are then rejected.
func NewMembershipHandler(membership *service.MembershipService, uploader ImageUploader, logger *slog.Logger) *MembershipHandler {
	return &MembershipHandler{membership: membership, uploader: uploader, logger: logger}
}

// SubmitActivation handles POST /api/membership/activate.
func (h *MembershipHandler) SubmitActivation(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Tier = domain.MembershipTier(strings.ToUpper(string(req.Tier)))

	proofURL := req.ProofURL
	if proofURL == "" && req.ProofBase64 != "" {
		if h.uploader == nil {
			writeError(w, http.StatusBadRequest, "inline proof uploads not supported")
			return
		}
		hosted, err := h.uploader.UploadImage(r.Context(), req.ProofBase64, "proof_"+claims.UserID)
		if err != nil {
			h.logger.Error("proof upload failed", slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, "proof upload failed")
			return
		}
		proofURL = hosted
	}

	if err := h.membership.SubmitActivation(r.Context(), claims.UserID, req.Tier, proofURL, req.ProofBase64); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending review"})
}

// Approve handles POST /api/admin/activations/{id}/approve.
func (h *MembershipHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := h.membership.ApproveActivation(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

// Reject handles POST /api/admin/activations/{id}/reject.
func (h *MembershipHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := h.membership.RejectActivation(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
