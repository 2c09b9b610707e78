package domain

import (
	"strings"
	"time"
)

// Role distinguishes regular affiliates from portal administrators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// MembershipTier is the priced level an affiliate buys into. Commissions are
// computed from the tier's price at activation time.
type MembershipTier string

const (
	TierNone     MembershipTier = "NONE"
	TierBronze   MembershipTier = "BRONZE"
	TierSilver   MembershipTier = "SILVER"
	TierGold     MembershipTier = "GOLD"
	TierPlatinum MembershipTier = "PLATINUM"
)

// MembershipStatus tracks the activation lifecycle:
// INACTIVE -> PENDING -> ACTIVE, or back to INACTIVE when rejected.
type MembershipStatus string

const (
	MembershipInactive MembershipStatus = "INACTIVE"
	MembershipPending  MembershipStatus = "PENDING"
	MembershipActive   MembershipStatus = "ACTIVE"
)

// User is an affiliate account. ID, Username, Email and ReferralCode are each
// globally unique; Username and Email compare case-insensitively. ReferredBy,
// when set, points at another User.ID (purely relational, never an ownership
// edge). Balance is MWK and never goes negative; TotalEarnings only grows.
type User struct {
	ID               string           `json:"id"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	Password         string           `json:"password,omitempty"`
	Role             Role             `json:"role"`
	ReferralCode     string           `json:"referralCode"`
	ReferredBy       string           `json:"referredBy,omitempty"`
	Balance          int64            `json:"balance"`
	TotalEarnings    int64            `json:"totalEarnings"`
	MembershipTier   MembershipTier   `json:"membershipTier"`
	MembershipStatus MembershipStatus `json:"membershipStatus"`
	ProofURL         string           `json:"proofUrl,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Banned           bool             `json:"banned,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastLoginAt      time.Time        `json:"lastLoginAt"`
}

// MatchesIdentifier reports whether the given login identifier matches this
// user's username or email, case-insensitively.
func (u *User) MatchesIdentifier(identifier string) bool {
	return strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier)
}

// CheckPassword compares the stored credential by equality. An unset password
// admits any input so that passwordless seed accounts can sign in.
func (u *User) CheckPassword(password string) bool {
	return u.Password == "" || u.Password == password
}
