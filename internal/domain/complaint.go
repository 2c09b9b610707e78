package domain

import "time"

// ComplaintStatus: PENDING until an admin replies, then RESOLVED.
type ComplaintStatus string

const (
	ComplaintPending  ComplaintStatus = "PENDING"
	ComplaintResolved ComplaintStatus = "RESOLVED"
)

// Complaint is a support ticket. Append-only from the user side; mutated
// exactly once by an admin reply.
type Complaint struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Subject       string          `json:"subject"`
	Message       string          `json:"message"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Status        ComplaintStatus `json:"status"`
	Reply         string          `json:"reply,omitempty"`
	ReplyImageURL string          `json:"replyImageUrl,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
