package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/splitledger/internal/domain"
)

// AuthGateway talks to the remote authentication service.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, name, email, password string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// GroupGateway manages groups and memberships on the remote API.
type GroupGateway interface {
	ListMine(ctx context.Context, session *domain.Session) ([]domain.Group, error)
	PendingInvitations(ctx context.Context, session *domain.Session) ([]domain.Group, error)
	Create(ctx context.Context, session *domain.Session, name, description string) (*domain.Group, error)
	AddMember(ctx context.Context, session *domain.Session, groupID, email string) error
	Invite(ctx context.Context, session *domain.Session, groupID, email string) error
	Accept(ctx context.Context, session *domain.Session, groupID string) error
	Decline(ctx context.Context, session *domain.Session, groupID string) error
	Join(ctx context.Context, session *domain.Session, groupID string) error
	RemoveMember(ctx context.Context, session *domain.Session, groupID, email string) error
	Delete(ctx context.Context, session *domain.Session, groupID string) error
}

// ExpenseGateway records and lists expenses on the remote API.
type ExpenseGateway interface {
	Create(ctx context.Context, session *domain.Session, expense *domain.Expense, idempotencyKey string) error
	ListByGroup(ctx context.Context, session *domain.Session, groupID string) ([]domain.Expense, error)
	Notify(ctx context.Context, session *domain.Session, expenseID string) error
}

// SettlementGateway records and lists settlements on the remote API.
type SettlementGateway interface {
	Create(ctx context.Context, session *domain.Session, settlement *domain.Settlement, idempotencyKey string) error
	ListByGroup(ctx context.Context, session *domain.Session, groupID string) ([]domain.Settlement, error)
}

// ReportGateway fetches reports aggregated by the remote API.
type ReportGateway interface {
	UserReport(ctx context.Context, session *domain.Session, userID string) (*domain.UserReport, error)
	Export(ctx context.Context, session *domain.Session, groupID string, format domain.ExportFormat) (*domain.Artifact, error)
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SubmissionGuard rejects identical writes submitted twice within a short window.
type SubmissionGuard interface {
	// Acquire claims key for ttl. It returns false if the key is already claimed.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a claimed key so a failed submission can be retried.
	Release(ctx context.Context, key string) error
}

// SessionStore persists the current session between invocations.
type SessionStore interface {
	// Load returns domain.ErrNoSession when nothing is stored.
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
