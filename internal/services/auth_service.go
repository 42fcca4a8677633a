// Package services – AuthService
//
// AuthService covers registration, login, logout and email verification.
// Input is validated locally before any upstream call; a successful login
// stores the token in the session context, which notifies observers.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/validation"
)

// AuthAPI is the upstream surface AuthService needs.
type AuthAPI interface {
	Register(ctx context.Context, in domain.Registration) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenGrant, error)
	Me(ctx context.Context) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.Verification, error)
}

// SessionControl is the session context as seen by AuthService.
type SessionControl interface {
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	LoggedIn(ctx context.Context) (bool, error)
	LoginURL() string
}

type AuthService struct {
	API     AuthAPI
	Session SessionControl
}

// AuthStatus is the login state of the profile.
type AuthStatus struct {
	LoggedIn bool   `json:"logged_in"`
	LoginURL string `json:"login_url"`
}

// Register validates the form and creates the account. confirm is the
// password confirmation; it is checked only when non-empty.
func (s *AuthService) Register(ctx context.Context, in domain.Registration, confirm string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Register")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Registration(in, confirm); err != nil {
		return nil, err
	}
	return s.API.Register(ctx, in)
}

// Login exchanges credentials for a token and stores it.
func (s *AuthService) Login(ctx context.Context, email, password string) error {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if err := validation.Credentials(email, password); err != nil {
		return err
	}
	grant, err := s.API.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.Session.SetToken(ctx, grant.AccessToken)
}

// Logout forgets the token.
func (s *AuthService) Logout(ctx context.Context) error {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Logout")
	defer span.End()
	return s.Session.Clear(ctx)
}

// VerifyEmail forwards a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.Verification, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "VerifyEmail",
		trace.WithAttributes(attribute.Bool("token.present", token != "")))
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	return s.API.VerifyEmail(ctx, token)
}

// Status reports whether a token is stored.
func (s *AuthService) Status(ctx context.Context) (AuthStatus, error) {
	in, err := s.Session.LoggedIn(ctx)
	if err != nil {
		return AuthStatus{}, err
	}
	return AuthStatus{LoggedIn: in, LoginURL: s.Session.LoginURL()}, nil
}

// Me returns the current account. An expired token is handled by the API
// client like any other 401.
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Me")
	defer span.End()
	return s.API.Me(ctx)
}
