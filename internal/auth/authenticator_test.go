package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

func newTestAuthenticator() (*auth.Authenticator, repository.UserRepository) {
	users := repository.NewMemoryUserRepository()
	return auth.NewAuthenticator(users, bcrypt.MinCost), users
}

func TestRegisterAndAuthenticate(t *testing.T) {
	authenticator, _ := newTestAuthenticator()
	ctx := context.Background()

	user, err := authenticator.Register(ctx, "alice@example.com", "secret123", nil)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, []domain.Role{domain.RoleUser}, user.Roles)
	require.NotEqual(t, "secret123", user.PasswordHash)

	identity, err := authenticator.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", identity.Subject)
	require.Equal(t, []domain.Role{domain.RoleUser}, identity.Roles)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	authenticator, _ := newTestAuthenticator()
	ctx := context.Background()

	_, err := authenticator.Register(ctx, "alice@example.com", "secret123", nil)
	require.NoError(t, err)

	_, unknownErr := authenticator.Authenticate(ctx, "nobody@example.com", "secret123")
	_, wrongPassErr := authenticator.Authenticate(ctx, "alice@example.com", "wrong")

	require.ErrorIs(t, unknownErr, auth.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassErr, auth.ErrInvalidCredentials)
	require.EqualError(t, unknownErr, wrongPassErr.Error())
}

func TestAuthenticateSuspendedAccount(t *testing.T) {
	authenticator, users := newTestAuthenticator()
	ctx := context.Background()

	hash, err := auth.HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &domain.User{
		Email:        "bob@example.com",
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleUser},
		Status:       domain.UserStatusSuspended,
	}))

	_, err = authenticator.Authenticate(ctx, "bob@example.com", "secret123")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterDuplicateIdentifier(t *testing.T) {
	authenticator, _ := newTestAuthenticator()
	ctx := context.Background()

	_, err := authenticator.Register(ctx, "alice@example.com", "secret123", nil)
	require.NoError(t, err)

	_, err = authenticator.Register(ctx, "alice@example.com", "other-password", nil)
	require.ErrorIs(t, err, auth.ErrDuplicateIdentifier)
}

func TestRegisterWithExplicitRoles(t *testing.T) {
	authenticator, _ := newTestAuthenticator()
	ctx := context.Background()

	user, err := authenticator.Register(ctx, "root@example.com", "secret123", []domain.Role{domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, []domain.Role{domain.RoleAdmin}, user.Roles)
}

func TestAuthenticateBackendFailureIsNotADenial(t *testing.T) {
	authenticator := auth.NewAuthenticator(&failingStore{}, bcrypt.MinCost)

	_, err := authenticator.Authenticate(context.Background(), "alice@example.com", "secret123")
	require.Error(t, err)
	require.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}
