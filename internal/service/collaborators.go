package service

import "context"

// Notifier delivers best-effort operator alerts (new withdrawal, new
// activation request). Implementations must never block or fail the mutation
// that triggered them.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) {}

// ProofVerifier is the advisory AI check on activation proof images. Its
// verdict is informational: a negative or failed verification never blocks
// the submission path.
type ProofVerifier interface {
	Verify(ctx context.Context, imageBase64 string) (valid bool, message string)
}
