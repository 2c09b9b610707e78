package service

import "errors"

// Validation errors are surfaced synchronously to the caller; when one is
// returned, no state mutation has occurred.
var (
	ErrMissingFields        = errors.New("username, email and password are required")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidReferralCode  = errors.New("referral code not recognized")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnknownTier          = errors.New("unknown membership tier")
	ErrActivationPending    = errors.New("activation already pending review")
	ErrAlreadyActive        = errors.New("membership already active")
	ErrNotPending           = errors.New("no pending activation for this user")
	ErrMembershipNotActive  = errors.New("active membership required")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrAmountBelowMinimum   = errors.New("amount below the minimum withdrawal")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrWithdrawalNotPending = errors.New("withdrawal already processed")
	ErrComplaintResolved    = errors.New("complaint already resolved")
	ErrMissingSubject       = errors.New("subject and message are required")
)
