package session

import (
	"time"

	"github.com/foodclipz/go-client/users"
)

// Status is the client's authentication lifecycle state. It is the single
// source of truth for which top-level screen is shown.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusLinkSent
	StatusVerifying
	StatusVerified
	StatusProfileIncomplete
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusLinkSent:
		return "link_sent"
	case StatusVerifying:
		return "verifying"
	case StatusVerified:
		return "verified"
	case StatusProfileIncomplete:
		return "profile_incomplete"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// RegistrationHint is the name captured at registration time, carried so a
// resend still pre-registers the account. Discarded once verification
// consumes it.
type RegistrationHint struct {
	FirstName string
	LastName  string
}

// Snapshot is the read-only view handed to change subscribers. The
// invariants of the session hold on every snapshot: PendingEmail is set iff
// the status is LinkSent or Verifying, User is set iff the status is
// Verified, ProfileIncomplete or Authenticated.
type Snapshot struct {
	Status       Status
	PendingEmail string
	User         *users.User
	LastError    string
	ResendIn     time.Duration
}

// CanResend reports whether the resend affordance should be offered.
func (s Snapshot) CanResend() bool {
	return s.Status == StatusLinkSent && s.ResendIn <= 0
}

// ResendSeconds is the whole-second countdown rendered next to the resend
// control, rounded up so the control never unlocks a second early.
func (s Snapshot) ResendSeconds() int {
	if s.ResendIn <= 0 {
		return 0
	}
	return int((s.ResendIn + time.Second - 1) / time.Second)
}
