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

// ComplaintSubmitRequest is the ticket payload. The image may be an already
// hosted URL or inline base64 data.
type ComplaintSubmitRequest struct {
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// ComplaintReplyRequest is the admin response payload.
type ComplaintReplyRequest struct {
	Reply         string `json:"reply"`
	ReplyImageURL string `json:"replyImageUrl,omitempty"`
}

// ComplaintHandler serves ticket submission, the user's own tickets, and the
// admin reply endpoint.
type ComplaintHandler struct {
	complaints *service.ComplaintService
	store      *state.Store
	uploader   ImageUploader
	logger     *slog.Logger
}

// NewComplaintHandler creates the complaint handler. uploader may be nil.
func NewComplaintHandler(complaints *service.ComplaintService, store *state.Store, uploader ImageUploader, logger *slog.Logger) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, store: store, uploader: uploader, logger: logger}
}

// Submit handles POST /api/complaints.
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	var req ComplaintSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	imageURL := req.ImageURL
	if imageURL == "" && req.ImageBase64 != "" && h.uploader != nil {
		hosted, err := h.uploader.UploadImage(r.Context(), req.ImageBase64, "complaint_"+claims.UserID)
		if err != nil {
			h.logger.Warn("complaint image upload failed", slog.String("error", err.Error()))
		} else {
			imageURL = hosted
		}
	}

	created, err := h.complaints.Submit(r.Context(), claims.UserID, req.Subject, req.Message, imageURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMine handles GET /api/complaints: the caller's own tickets.
func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return
	}

	st := h.store.Snapshot()
	out := []domain.Complaint{}
	for i := range st.Complaints {
		if st.Complaints[i].UserID == claims.UserID {
			out = append(out, st.Complaints[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Reply handles POST /api/admin/complaints/{id}/reply.
func (h *ComplaintHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req ComplaintReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Reply == "" {
		writeError(w, http.StatusBadRequest, "reply is required")
		return
	}

	if err := h.complaints.Reply(r.Context(), r.PathValue("id"), req.Reply, req.ReplyImageURL); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
