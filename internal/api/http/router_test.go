package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
)

type testApp struct {
	app           *fiber.App
	authenticator *auth.Authenticator
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	secret := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	codec, err := auth.NewCodec(secret, time.Minute, "auth-service", "auth-service-clients")
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	authenticator := auth.NewAuthenticator(users, bcrypt.MinCost)
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redisWrapper := &persistence.Redis{Client: redisClient}

	dispatcher := events.NewInMemoryDispatcher()
	authService := service.NewAuthService(service.AuthDependencies{
		Authenticator: authenticator,
		Codec:         codec,
		Limiter:       service.NewLoginLimiter(redisClient, 10, time.Minute),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler("auth-service", "test", nil, redisWrapper),
		Auth:     handlers.NewAuthHandler(authService),
		Accounts: handlers.NewAccountsHandler(users),
		Filter:   auth.NewFilter(codec, users, logger, metrics),
	})

	return &testApp{app: app, authenticator: authenticator}
}

func (a *testApp) do(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func loginToken(t *testing.T, a *testApp, email, password string) string {
	t.Helper()
	resp, body := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginAndAccessProtectedResource(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "alice@example.com",
		body["data"].(map[string]any)["user"].(map[string]any)["email"])

	token := loginToken(t, a, "alice@example.com", "secret123")

	resp, body = a.do(t, http.MethodGet, "/accounts/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	require.Equal(t, "alice@example.com", data["subject"])
	require.Equal(t, []any{"USER"}, data["roles"])
}

func TestGarbageTokenIsRejectedWithUnauthorizedBody(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, http.MethodGet, "/accounts/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", body["error"])
	require.NotEmpty(t, body["message"])
}

func TestPublicRouteWithoutHeaderProceeds(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRouteWithoutHeaderIsDeniedByGuard(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, http.MethodGet, "/accounts/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", body["error"])
}

func TestLoginWithWrongPasswordIsUnauthorized(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", body["error"])
	require.Equal(t, "invalid credentials", body["message"])
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "Conflict", body["error"])
}

func TestAdminRouteRequiresAdminRole(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.authenticator.Register(ctx, "admin@example.com", "admin123", []domain.Role{domain.RoleAdmin})
	require.NoError(t, err)
	_, err = a.authenticator.Register(ctx, "alice@example.com", "secret123", nil)
	require.NoError(t, err)

	userToken := loginToken(t, a, "alice@example.com", "secret123")
	resp, body := a.do(t, http.MethodGet, "/admin/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Forbidden", body["error"])

	adminToken := loginToken(t, a, "admin@example.com", "admin123")
	resp, body = a.do(t, http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["data"].([]any), 2)
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "alive", body["status"])

	resp, body = a.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])
}
