package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/splitledger/internal/domain"
)

// Claims are the parts of the bearer token the client reads.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo is what the client learns from a bearer token without verifying it.
type TokenInfo struct {
	Subject   string
	UserID    string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect decodes a JWT without checking its signature. The remote service is the
// only verifier; the client only needs the expiry to drop stale sessions early.
// Tokens that are not JWTs yield domain.ErrInvalidToken.
func Inspect(token string) (*TokenInfo, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, domain.ErrInvalidToken
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}

// Enrich fills session expiry and missing identity fields from the token.
// Opaque tokens leave the session untouched.
func Enrich(session *domain.Session) {
	info, err := Inspect(session.Token)
	if err != nil {
		return
	}

	if !info.ExpiresAt.IsZero() {
		session.ExpiresAt = info.ExpiresAt
	}
	if !info.IssuedAt.IsZero() {
		session.IssuedAt = info.IssuedAt
	}
	if session.User.ID == "" {
		session.User.ID = info.UserID
	}
	if session.User.Email == "" {
		session.User.Email = info.Email
		if session.User.Email == "" {
			session.User.Email = info.Subject
		}
	}
	if session.User.Name == "" {
		session.User.Name = info.Name
	}
}
