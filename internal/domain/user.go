package domain

import (
	"errors"
	"time"
)

// User is the authenticated account behind a session.
type User struct {
	ID    string
	Email string
	Name  string
}

// AsMember returns the user as a group member.
func (u *User) AsMember() Member {
	return Member{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session holds the bearer token and profile returned at login. It is created by a
// successful login, passed explicitly to every remote call and destroyed at logout.
type Session struct {
	Token     string
	User      User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrSessionExpired   = errors.New("session has expired, please log in again")
	ErrNoSession        = errors.New("not logged in")
	ErrInvalidResetCode = errors.New("invalid or expired reset token")
)
