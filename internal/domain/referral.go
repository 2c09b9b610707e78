package domain

import "time"

// Referral records one commission credit. Referrals are created only by the
// commission engine when a referred affiliate's membership activates, and are
// never mutated afterwards. Level is 1 (direct referrer) or 2 (the referrer's
// own referrer); the chain is truncated at two hops.
type Referral struct {
	ID         string    `json:"id"`
	ReferrerID string    `json:"referrerId"`
	ReferredID string    `json:"referredId"`
	Level      int       `json:"level"`
	Commission int64     `json:"commission"`
	Timestamp  time.Time `json:"timestamp"`
}
