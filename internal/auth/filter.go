package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const identityKey = "auth_identity"

// Filter authenticates every inbound request. A request without a bearer
// credential passes through unauthenticated; a present-but-invalid token is
// rejected outright; a valid token gets its subject's roles resolved from
// the store and an Identity attached to the request, at most once.
type Filter struct {
	codec   *Codec
	users   repository.UserRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewFilter constructs the authentication filter.
func NewFilter(codec *Codec, users repository.UserRepository, logger *zap.Logger, metrics *observability.Metrics) *Filter {
	return &Filter{codec: codec, users: users, logger: logger, metrics: metrics}
}

// Handle runs once per request, before any authorization decision.
func (f *Filter) Handle(c *fiber.Ctx) error {
	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		// no bearer credential: continue unauthenticated and let the
		// authorization layer decide whether the route is public
		return c.Next()
	}

	claims, err := f.codec.Decode(token)
	if err != nil {
		var tokenErr *TokenError
		if errors.As(err, &tokenErr) {
			f.logger.Debug("token rejected",
				zap.String("kind", string(tokenErr.Kind)),
				zap.String("path", c.Path()))
			f.metrics.RecordAuthOutcome("rejected")
			return apperrors.NewUnauthorized(tokenErr.Message())
		}
		f.metrics.RecordAuthOutcome("rejected")
		return apperrors.NewUnauthorized("invalid token")
	}

	if _, attached := IdentityFromContext(c); attached {
		return c.Next()
	}

	roles, err := f.users.RolesFor(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			f.metrics.RecordAuthOutcome("rejected")
			return apperrors.NewUnauthorized("unknown subject")
		}
		// the token was cryptographically valid; an unreachable store is an
		// infrastructure failure, not an authentication decision
		f.logger.Error("authority lookup failed",
			zap.String("subject", claims.Subject),
			zap.Error(err))
		f.metrics.RecordAuthOutcome("lookup_failed")
		return apperrors.NewInternalError(err)
	}

	c.Locals(identityKey, &domain.Identity{Subject: claims.Subject, Roles: roles})
	f.metrics.RecordAuthOutcome("authenticated")
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
