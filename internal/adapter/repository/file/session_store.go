// Package file stores client state on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// SessionStore implements usecase.SessionStore as a JSON file readable only by its owner.
type SessionStore struct {
	path string
}

var _ usecase.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new SessionStore writing to path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the session file location.
func (s *SessionStore) Path() string {
	return s.path
}

type sessionRecord struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Load reads the stored session. A missing or empty file yields domain.ErrNoSession.
func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session file %s: %w", s.path, err)
	}
	if rec.Token == "" {
		return nil, domain.ErrNoSession
	}

	session := &domain.Session{
		Token:    rec.Token,
		User:     domain.User{ID: rec.UserID, Email: rec.Email, Name: rec.Name},
		IssuedAt: rec.IssuedAt,
	}
	if rec.ExpiresAt != nil {
		session.ExpiresAt = *rec.ExpiresAt
	}

	return session, nil
}

// Save replaces the stored session atomically.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrNoSession
	}

	rec := sessionRecord{
		Token:    session.Token,
		UserID:   session.User.ID,
		Email:    session.User.Email,
		Name:     session.User.Name,
		IssuedAt: session.IssuedAt,
	}
	if !session.ExpiresAt.IsZero() {
		expires := session.ExpiresAt
		rec.ExpiresAt = &expires
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (s *SessionStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
