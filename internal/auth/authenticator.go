package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

// Authenticator validates credentials against the user store and creates
// new credential records. It is stateless and safe for concurrent use.
type Authenticator struct {
	users     repository.UserRepository
	cost      int
	dummyHash string
}

// NewAuthenticator builds an authenticator with the given bcrypt cost.
func NewAuthenticator(users repository.UserRepository, bcryptCost int) *Authenticator {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// compared against on the unknown-identifier path so both failure modes
	// cost one bcrypt verification
	dummy, err := HashPassword("", bcryptCost)
	if err != nil {
		dummy = ""
	}
	return &Authenticator{users: users, cost: bcryptCost, dummyHash: dummy}
}

// Authenticate verifies an identifier/password pair. Every failure mode
// returns the same ErrInvalidCredentials; only a store outage surfaces a
// different error, and that one must never be treated as a denial.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*domain.Identity, error) {
	user, err := a.users.GetByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = ComparePassword(a.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	return &domain.Identity{Subject: user.Email, Roles: user.Roles}, nil
}

// Register hashes the password and stores a new credential record. Roles
// default to USER when none are given.
func (a *Authenticator) Register(ctx context.Context, identifier, password string, roles []domain.Role) (*domain.User, error) {
	if _, err := a.users.GetByEmail(ctx, identifier); err == nil {
		return nil, ErrDuplicateIdentifier
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password, a.cost)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	user := &domain.User{
		Email:        identifier,
		PasswordHash: hash,
		Roles:        roles,
		Status:       domain.UserStatusActive,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, err
	}
	return user, nil
}
