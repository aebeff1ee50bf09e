package service

import (
	"context"

	"lessonforge/internal/model"

	"github.com/rs/zerolog"
)

// AuthBackend is the slice of the Supabase client the auth service needs.
type AuthBackend interface {
	SignUp(ctx context.Context, email, password string) (*model.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
}

// AuthService registers and signs in users against the auth backend.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*model.AuthUser, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
}

type authService struct {
	backend AuthBackend
	logger  zerolog.Logger
}

func NewAuthService(backend AuthBackend, logger zerolog.Logger) AuthService {
	return &authService{backend: backend, logger: logger.With().Str("service", "AuthService").Logger()}
}

func (s *authService) SignUp(ctx context.Context, email, password string) (*model.AuthUser, error) {
	user, err := s.backend.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sign up failed")
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("User signed up")
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	session, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Login failed")
		return nil, err
	}
	return session, nil
}
