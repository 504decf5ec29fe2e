package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/splitledger/internal/domain"
)

// AuthUseCase handles login, registration and the lifecycle of the local session.
type AuthUseCase struct {
	gateway AuthGateway
	store   SessionStore
	now     func() time.Time
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(gateway AuthGateway, store SessionStore) *AuthUseCase {
	return &AuthUseCase{
		gateway: gateway,
		store:   store,
		now:     time.Now,
	}
}

// SetClock overrides the time source used for expiry checks.
func (uc *AuthUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// Login authenticates and stores the resulting session.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	session, err := uc.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if session.IssuedAt.IsZero() {
		session.IssuedAt = uc.now().UTC()
	}
	if session.User.Email == "" {
		session.User.Email = email
	}

	if err := uc.store.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// RegisterInput represents input for creating an account.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates an account. It does not log in.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) error {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if err := domain.ValidateUserName(name); err != nil {
		return err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	if err := domain.ValidatePasswordConfirmation(input.Password, input.ConfirmPassword); err != nil {
		return err
	}

	return uc.gateway.Register(ctx, name, email, input.Password)
}

// ForgotPassword asks the remote service to send a reset link.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	return uc.gateway.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password using the token from the reset link.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, token, password, confirmation string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidResetCode
	}
	if err := domain.ValidatePasswordConfirmation(password, confirmation); err != nil {
		return err
	}
	return uc.gateway.ResetPassword(ctx, token, password)
}

// Logout destroys the stored session. Logging out without a session is not an error.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	return uc.store.Clear(ctx)
}

// CurrentSession returns the stored session. An expired session is cleared and
// reported as domain.ErrSessionExpired.
func (uc *AuthUseCase) CurrentSession(ctx context.Context) (*domain.Session, error) {
	session, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkSession(session, uc.now()); err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			if clearErr := uc.store.Clear(ctx); clearErr != nil {
				return nil, errors.Join(err, clearErr)
			}
		}
		return nil, err
	}

	return session, nil
}
