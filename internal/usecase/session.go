package usecase

import (
	"time"

	"github.com/iho/splitledger/internal/domain"
)

// checkSession rejects missing and expired sessions before any remote call.
func checkSession(session *domain.Session, now time.Time) error {
	if session == nil || session.Token == "" {
		return domain.ErrNoSession
	}
	if session.Expired(now) {
		return domain.ErrSessionExpired
	}
	return nil
}
