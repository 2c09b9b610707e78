package state

import "github.com/yourorg/affiliateportal/internal/domain"

// MergeRule names the reconciliation precedence for one top-level field of
// the shared document.
type MergeRule string

const (
	// RuleUnionByID appends remote records whose id is unknown locally.
	// Records already known locally are kept untouched; local is
	// authoritative for any user it has seen, including the signed-in one.
	RuleUnionByID MergeRule = "union-by-id"
	// RuleRemoteWins replaces the local value wholesale when the remote
	// document carries one. Correct only under a single-writer-per-document
	// deployment: local-only records created before the first reconciliation
	// are dropped. That precondition is deliberate and documented, not an
	// accident of implementation.
	RuleRemoteWins MergeRule = "remote-wins"
	// RuleLocalOnly never takes the remote value. Used for the session
	// pointer, which is per-device.
	RuleLocalOnly MergeRule = "local-only"
)

// MergePolicy is the auditable field-by-field precedence table applied by
// Merge. Tests assert against this table directly so a policy change cannot
// hide inside merge plumbing.
var MergePolicy = map[string]MergeRule{
	"users":          RuleUnionByID,
	"withdrawals":    RuleRemoteWins,
	"referrals":      RuleRemoteWins,
	"complaints":     RuleRemoteWins,
	"systemSettings": RuleRemoteWins,
	"currentUser":    RuleLocalOnly,
}

// Merge folds a fetched remote document into the local one according to
// MergePolicy and returns the merged result. Neither input is modified.
// Absent remote fields (nil slices, zero settings) leave the local value in
// place.
func Merge(local, remote *domain.AppState) *domain.AppState {
	out := local.Clone()
	if remote == nil {
		return out
	}

	// Each branch below implements the rule MergePolicy assigns to its field;
	// merge_test.go pins the table so the two cannot drift apart silently.

	// users: union-by-id
	out.Users = unionUsersByID(out.Users, remote.Users)

	// withdrawals, referrals, complaints, systemSettings: remote-wins
	if remote.Withdrawals != nil {
		out.Withdrawals = append([]domain.WithdrawalRequest(nil), remote.Withdrawals...)
	}
	if remote.Referrals != nil {
		out.Referrals = append([]domain.Referral(nil), remote.Referrals...)
	}
	if remote.Complaints != nil {
		out.Complaints = append([]domain.Complaint(nil), remote.Complaints...)
	}
	if !remote.SystemSettings.IsZero() {
		out.SystemSettings = remote.SystemSettings
	}

	// currentUser: local-only. out already carries the pre-merge session
	// pointer and the remote document never stores one.
	return out
}

// unionUsersByID keeps every local user as-is and appends remote users whose
// id is not known locally. Remote copies never overwrite local records.
func unionUsersByID(local, remote []domain.User) []domain.User {
	known := make(map[string]struct{}, len(local))
	for i := range local {
		known[local[i].ID] = struct{}{}
	}
	out := append([]domain.User(nil), local...)
	for i := range remote {
		if _, ok := known[remote[i].ID]; ok {
			continue
		}
		known[remote[i].ID] = struct{}{}
		out = append(out, remote[i])
	}
	return out
}
