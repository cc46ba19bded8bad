package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// AccountsHandler exposes identity-aware resources.
type AccountsHandler struct {
	users repository.UserRepository
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(users repository.UserRepository) *AccountsHandler {
	return &AccountsHandler{users: users}
}

// Me handles GET /accounts/me for any authenticated identity.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	roles := make([]string, 0, len(identity.Roles))
	for _, role := range identity.Roles {
		roles = append(roles, string(role))
	}
	return c.JSON(fiber.Map{
		"data": dto.IdentityResponse{Subject: identity.Subject, Roles: roles},
	})
}

// List handles GET /admin/users, restricted to the ADMIN role.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		roles := make([]string, 0, len(user.Roles))
		for _, role := range user.Roles {
			roles = append(roles, string(role))
		}
		out = append(out, dto.UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Roles:     roles,
			Status:    string(user.Status),
			CreatedAt: user.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}
