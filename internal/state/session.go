package state

import (
	"errors"
	"time"

	"github.com/yourorg/affiliateportal/internal/domain"
)

// ErrInvalidCredentials is returned for unknown identifiers and password
// mismatches alike, so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrAccountBanned is returned when a banned affiliate attempts to sign in.
var ErrAccountBanned = errors.New("account is suspended")

// Login binds the session to the first user whose username or email matches
// the identifier case-insensitively and whose password compares equal (or is
// unset, for passwordless seed accounts). The session is a pointer into the
// users list by id; it lives only on this device and is stripped before any
// remote push.
func (s *Store) Login(identifier, password string) (*domain.User, error) {
	var logged domain.User
	err := s.Update("login", func(st *domain.AppState) error {
		for i := range st.Users {
			u := &st.Users[i]
			if !u.MatchesIdentifier(identifier) {
				continue
			}
			if !u.CheckPassword(password) {
				return ErrInvalidCredentials
			}
			if u.Banned {
				return ErrAccountBanned
			}
			u.LastLoginAt = time.Now().UTC()
			st.CurrentUserID = u.ID
			logged = *u
			return nil
		}
		return ErrInvalidCredentials
	})
	if err != nil {
		return nil, err
	}
	return &logged, nil
}

// Logout clears the session pointer.
func (s *Store) Logout() {
	_ = s.Update("logout", func(st *domain.AppState) error {
		st.CurrentUserID = ""
		return nil
	})
}

// SessionUser returns a copy of the signed-in user, or nil when logged out.
// The copy is always resolved against the live users list, never a detached
// record.
func (s *Store) SessionUser() *domain.User {
	st := s.Snapshot()
	u := st.CurrentUser()
	if u == nil {
		return nil
	}
	out := *u
	return &out
}
