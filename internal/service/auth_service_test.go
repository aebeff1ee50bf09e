package service

import (
	"context"
	"testing"

	"lessonforge/internal/model"
	"lessonforge/internal/supabase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthBackend struct {
	err error
}

func (f *fakeAuthBackend) SignUp(_ context.Context, email, _ string) (*model.AuthUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.AuthUser{ID: "user-1", Email: email}, nil
}

func (f *fakeAuthBackend) SignInWithPassword(_ context.Context, email, _ string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Session{AccessToken: "tok", User: &model.AuthUser{ID: "user-1", Email: email}}, nil
}

func TestAuthServicePassesThrough(t *testing.T) {
	svc := NewAuthService(&fakeAuthBackend{}, zerolog.Nop())

	user, err := svc.SignUp(context.Background(), "ada@school.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	session, err := svc.Login(context.Background(), "ada@school.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "ada@school.io", session.User.Email)
}

func TestAuthServiceKeepsBackendError(t *testing.T) {
	backendErr := &supabase.AuthError{StatusCode: 400, Message: "Invalid login credentials"}
	svc := NewAuthService(&fakeAuthBackend{err: backendErr}, zerolog.Nop())

	_, err := svc.Login(context.Background(), "ada@school.io", "wrong-pass")
	assert.Same(t, backendErr, err)
}
