package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
)

// AuthService coordinates registration and login flows: throttle check,
// credential verification, token issuance and audit event publication.
type AuthService struct {
	authenticator *auth.Authenticator
	codec         *auth.Codec
	limiter       *LoginLimiter
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Authenticator *auth.Authenticator
	Codec         *auth.Codec
	Limiter       *LoginLimiter
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewAuthService builds the service. Limiter and Dispatcher may be nil.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		authenticator: deps.Authenticator,
		codec:         deps.Codec,
		limiter:       deps.Limiter,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
	}
}

// Register creates a new account and returns it with a freshly issued token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.authenticator.Register(ctx, email, password, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.codec.Issue(user.Email, nil, time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		Subject: user.Email,
		Payload: events.UserRegisteredPayload{Roles: user.Roles},
	})
	return user, token, exp, nil
}

// Login authenticates a credential pair and issues a token on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email); err != nil {
			if errors.Is(err, ErrTooManyLoginAttempts) {
				return nil, "", time.Time{}, err
			}
			// throttle storage being down must not block logins
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		}
	}

	identity, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordFailure(ctx, email)
			s.publish(ctx, events.Event{
				Type:    events.EventLoginFailed,
				Subject: email,
				Payload: events.LoginFailedPayload{Reason: "invalid credentials"},
			})
		}
		return nil, "", time.Time{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("login limiter reset failed", zap.Error(err))
		}
	}

	token, exp, err := s.codec.Issue(identity.Subject, nil, time.Now())
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, Subject: identity.Subject})
	return identity, token, exp, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("login limiter record failed", zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
