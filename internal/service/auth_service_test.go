package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
)

func testCodec(t *testing.T) *auth.Codec {
	t.Helper()
	secret := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	codec, err := auth.NewCodec(secret, time.Minute, "auth-service", "auth-service-clients")
	require.NoError(t, err)
	return codec
}

type eventRecorder struct {
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.events = append(r.events, event)
	return nil
}

func newTestService(t *testing.T, limiter *service.LoginLimiter) (*service.AuthService, *eventRecorder) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &eventRecorder{}
	dispatcher.Subscribe(events.EventUserRegistered, recorder.record)
	dispatcher.Subscribe(events.EventLoginSucceeded, recorder.record)
	dispatcher.Subscribe(events.EventLoginFailed, recorder.record)

	svc := service.NewAuthService(service.AuthDependencies{
		Authenticator: auth.NewAuthenticator(users, bcrypt.MinCost),
		Codec:         testCodec(t),
		Limiter:       limiter,
		Dispatcher:    dispatcher,
		Logger:        zap.NewNop(),
	})
	return svc, recorder
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRegisterIssuesDecodableToken(t *testing.T) {
	svc, recorder := newTestService(t, nil)
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.True(t, exp.After(time.Now()))

	claims, err := testCodec(t).Decode(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Subject)

	require.Len(t, recorder.events, 1)
	require.Equal(t, events.EventUserRegistered, recorder.events[0].Type)
	require.Equal(t, "alice@example.com", recorder.events[0].Subject)
}

func TestLoginPublishesOutcomeEvents(t *testing.T) {
	svc, recorder := newTestService(t, nil)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	identity, token, _, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", identity.Subject)
	require.NotEmpty(t, token)

	var types []events.EventType
	for _, event := range recorder.events {
		types = append(types, event.Type)
	}
	require.Equal(t, []events.EventType{
		events.EventUserRegistered,
		events.EventLoginFailed,
		events.EventLoginSucceeded,
	}, types)
}

func TestLoginLimiterThrottles(t *testing.T) {
	limiter := service.NewLoginLimiter(redisClient(t), 3, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Check(ctx, "alice@example.com"))
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "alice@example.com"))
	}
	require.ErrorIs(t, limiter.Check(ctx, "alice@example.com"), service.ErrTooManyLoginAttempts)

	require.NoError(t, limiter.Reset(ctx, "alice@example.com"))
	require.NoError(t, limiter.Check(ctx, "alice@example.com"))
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	limiter := service.NewLoginLimiter(redisClient(t), 2, time.Minute)
	svc, _ := newTestService(t, limiter)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	// correct password no longer helps while the cooldown is armed
	_, _, _, err = svc.Login(ctx, "alice@example.com", "secret123")
	require.ErrorIs(t, err, service.ErrTooManyLoginAttempts)
}

func TestLoginLimiterDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := service.NewLoginLimiter(client, 3, time.Minute)
	svc, _ := newTestService(t, limiter)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	mr.Close()

	_, _, _, err = svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
}
