package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/auth"
	"github.com/iho/splitledger/internal/usecase"
)

// AuthGateway implements usecase.AuthGateway against the authentication service.
type AuthGateway struct {
	client *Client
}

var _ usecase.AuthGateway = (*AuthGateway)(nil)

// NewAuthGateway creates a new AuthGateway.
func NewAuthGateway(client *Client) *AuthGateway {
	return &AuthGateway{client: client}
}

// Login exchanges credentials for a session.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp loginResponse
	err := g.client.doJSON(ctx, request{
		service:   ServiceAuth,
		operation: "login",
		method:    http.MethodPost,
		auth:      true,
		path:      "/auth/login",
		body:      loginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.Token) == "" {
		return nil, domain.ErrInvalidToken
	}

	session := &domain.Session{Token: resp.Token, User: resp.User.user()}
	auth.Enrich(session)

	return session, nil
}

// Register creates an account.
func (g *AuthGateway) Register(ctx context.Context, name, email, password string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceAuth,
		operation: "register",
		method:    http.MethodPost,
		auth:      true,
		path:      "/auth/register",
		body:      registerRequest{Name: name, Email: email, Password: password},
	}, nil)
}

// ForgotPassword requests a reset token by email.
func (g *AuthGateway) ForgotPassword(ctx context.Context, email string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceAuth,
		operation: "forgot_password",
		method:    http.MethodPost,
		auth:      true,
		path:      "/auth/forgot-password",
		body:      forgotPasswordRequest{Email: email},
	}, nil)
}

// ResetPassword sets a new password using a reset token.
func (g *AuthGateway) ResetPassword(ctx context.Context, token, password string) error {
	return g.client.doJSON(ctx, request{
		service:   ServiceAuth,
		operation: "reset_password",
		method:    http.MethodPost,
		auth:      true,
		path:      "/auth/reset-password",
		body:      resetPasswordRequest{Token: token, NewPassword: password},
	}, nil)
}
