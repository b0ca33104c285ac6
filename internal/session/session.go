// Package session owns identity state: login and lockout bookkeeping,
// session issuance and expiry, and permission checks.
package session

import (
	"time"

	"careattend/internal/model"
)

// UserSnapshot is the identity denormalized into a session at login time.
type UserSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	Permissions []string   `json:"permissions"`
	LoginAt     time.Time  `json:"login_at"`
}

// Session is the ephemeral proof of authentication. It is valid while both
// the absolute age ceiling and the idle window hold.
type Session struct {
	User           UserSnapshot `json:"user"`
	Token          string       `json:"token"`
	CreatedAt      time.Time    `json:"created_at"`
	LastActivityAt time.Time    `json:"last_activity_at"`
}

// ValidAt reports whether the session holds at the given instant.
func (s *Session) ValidAt(now time.Time, maxAge, idleTimeout time.Duration) bool {
	if s == nil || s.CreatedAt.IsZero() || s.LastActivityAt.IsZero() {
		return false
	}
	if now.Sub(s.CreatedAt) >= maxAge {
		return false
	}
	return now.Sub(s.LastActivityAt) < idleTimeout
}

// HasPermission reports whether the session's identity holds permission p.
// The "all" grant matches everything.
func (s *Session) HasPermission(p string) bool {
	if s == nil {
		return false
	}
	for _, held := range s.User.Permissions {
		if held == "all" || held == p {
			return true
		}
	}
	return false
}

// attemptCounter tracks failed logins per username.
type attemptCounter struct {
	Count         int        `json:"count"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
}
