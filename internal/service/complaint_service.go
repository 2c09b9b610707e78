package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/affiliateportal/internal/domain"
	"github.com/yourorg/affiliateportal/internal/state"
)

// ComplaintService handles support tickets: append-only from the user side,
// one admin reply resolves them.
type ComplaintService struct {
	store  *state.Store
	logger *slog.Logger
}

// NewComplaintService creates the complaint service.
func NewComplaintService(store *state.Store, logger *slog.Logger) *ComplaintService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComplaintService{store: store, logger: logger}
}

// Submit files a new ticket for the user.
func (c *ComplaintService) Submit(ctx context.Context, userID, subject, message, imageURL string) (*domain.Complaint, error) {
	if subject == "" || message == "" {
		return nil, ErrMissingSubject
	}

	var created domain.Complaint
	err := c.store.Update("complaint_submit", func(st *domain.AppState) error {
		if st.UserByID(userID) == nil {
			return ErrUserNotFound
		}
		created = domain.Complaint{
			ID:        uuid.NewString(),
			UserID:    userID,
			Subject:   subject,
			Message:   message,
			ImageURL:  imageURL,
			Status:    domain.ComplaintPending,
			CreatedAt: time.Now().UTC(),
		}
		st.Complaints = append(st.Complaints, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Reply records the admin response and resolves the ticket. Resolved tickets
// are terminal; a second reply is rejected.
func (c *ComplaintService) Reply(ctx context.Context, complaintID, reply, replyImageURL string) error {
	return c.store.Update("complaint_reply", func(st *domain.AppState) error {
		cp := st.ComplaintByID(complaintID)
		if cp == nil {
			return ErrUserNotFound
		}
		if cp.Status == domain.ComplaintResolved {
			return ErrComplaintResolved
		}
		cp.Reply = reply
		cp.ReplyImageURL = replyImageURL
		cp.Status = domain.ComplaintResolved
		return nil
	})
}
