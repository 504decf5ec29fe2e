package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
	"github.com/iho/splitledger/internal/usecase/mocks"
)

func TestAuthUseCase_Login(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		setupMocks  func(*mocks.MockAuthGateway, *mocks.MockSessionStore)
		expectError error
	}{
		{
			name:     "successful login stores the session",
			email:    " ann@example.com ",
			password: "secret1",
			setupMocks: func(gw *mocks.MockAuthGateway, store *mocks.MockSessionStore) {
				gw.EXPECT().Login(gomock.Any(), "ann@example.com", "secret1").
					Return(&domain.Session{Token: "t", User: domain.User{ID: "1"}}, nil)
				store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, s *domain.Session) error {
						if s.User.Email != "ann@example.com" {
							t.Errorf("expected email to be filled in, got %q", s.User.Email)
						}
						if s.IssuedAt.IsZero() {
							t.Error("expected issued-at to be set")
						}
						return nil
					})
			},
		},
		{
			name:        "invalid email",
			email:       "ann",
			password:    "secret1",
			setupMocks:  func(*mocks.MockAuthGateway, *mocks.MockSessionStore) {},
			expectError: domain.ErrInvalidEmail,
		},
		{
			name:        "short password",
			email:       "ann@example.com",
			password:    "12345",
			setupMocks:  func(*mocks.MockAuthGateway, *mocks.MockSessionStore) {},
			expectError: domain.ErrPasswordTooWeak,
		},
		{
			name:     "rejected credentials are not stored",
			email:    "ann@example.com",
			password: "wrong-password",
			setupMocks: func(gw *mocks.MockAuthGateway, _ *mocks.MockSessionStore) {
				gw.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrUnauthorized)
			},
			expectError: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			gw := mocks.NewMockAuthGateway(ctrl)
			store := mocks.NewMockSessionStore(ctrl)
			tt.setupMocks(gw, store)

			uc := usecase.NewAuthUseCase(gw, store)
			session, err := uc.Login(context.Background(), tt.email, tt.password)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.Token != "t" {
				t.Errorf("expected token t, got %q", session.Token)
			}
		})
	}
}

func TestAuthUseCase_Register(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.RegisterInput
		expectCall  bool
		expectError error
	}{
		{
			name:       "valid registration",
			input:      usecase.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret1"},
			expectCall: true,
		},
		{
			name:        "name too short",
			input:       usecase.RegisterInput{Name: "An", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret1"},
			expectError: domain.ErrInvalidName,
		},
		{
			name:        "passwords differ",
			input:       usecase.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret2"},
			expectError: domain.ErrPasswordMismatch,
		},
		{
			name:        "bad email",
			input:       usecase.RegisterInput{Name: "Ann", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"},
			expectError: domain.ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			gw := mocks.NewMockAuthGateway(ctrl)
			if tt.expectCall {
				gw.EXPECT().Register(gomock.Any(), tt.input.Name, tt.input.Email, tt.input.Password).Return(nil)
			}

			uc := usecase.NewAuthUseCase(gw, mocks.NewMockSessionStore(ctrl))
			err := uc.Register(context.Background(), tt.input)

			if !errors.Is(err, tt.expectError) {
				t.Fatalf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestAuthUseCase_ResetPassword(t *testing.T) {
	ctrl := gomock.NewController(t)

	gw := mocks.NewMockAuthGateway(ctrl)
	gw.EXPECT().ResetPassword(gomock.Any(), "reset-token", "newpass").Return(nil)

	uc := usecase.NewAuthUseCase(gw, mocks.NewMockSessionStore(ctrl))

	if err := uc.ResetPassword(context.Background(), "  ", "newpass", "newpass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("expected ErrInvalidResetCode, got %v", err)
	}
	if err := uc.ResetPassword(context.Background(), "reset-token", "newpass", "newpass"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthUseCase_ForgotPassword(t *testing.T) {
	ctrl := gomock.NewController(t)

	gw := mocks.NewMockAuthGateway(ctrl)
	gw.EXPECT().ForgotPassword(gomock.Any(), "ann@example.com").Return(nil)

	uc := usecase.NewAuthUseCase(gw, mocks.NewMockSessionStore(ctrl))

	if err := uc.ForgotPassword(context.Background(), "ann@example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := uc.ForgotPassword(context.Background(), "ann"); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestAuthUseCase_CurrentSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid session", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		store := mocks.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any()).Return(&domain.Session{Token: "t", ExpiresAt: now.Add(time.Hour)}, nil)

		uc := usecase.NewAuthUseCase(mocks.NewMockAuthGateway(ctrl), store)
		uc.SetClock(func() time.Time { return now })

		session, err := uc.CurrentSession(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Token != "t" {
			t.Errorf("expected token t, got %q", session.Token)
		}
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		store := mocks.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any()).Return(&domain.Session{Token: "t", ExpiresAt: now}, nil)
		store.EXPECT().Clear(gomock.Any()).Return(nil)

		uc := usecase.NewAuthUseCase(mocks.NewMockAuthGateway(ctrl), store)
		uc.SetClock(func() time.Time { return now })

		if _, err := uc.CurrentSession(context.Background()); !errors.Is(err, domain.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("nothing stored", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		store := mocks.NewMockSessionStore(ctrl)
		store.EXPECT().Load(gomock.Any()).Return(nil, domain.ErrNoSession)

		uc := usecase.NewAuthUseCase(mocks.NewMockAuthGateway(ctrl), store)

		if _, err := uc.CurrentSession(context.Background()); !errors.Is(err, domain.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
	})
}

func TestAuthUseCase_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Clear(gomock.Any()).Return(nil)

	uc := usecase.NewAuthUseCase(mocks.NewMockAuthGateway(ctrl), store)

	if err := uc.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
