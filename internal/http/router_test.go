package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"billing-backend/internal/auth"
	"billing-backend/internal/config"
	"billing-backend/internal/handlers"
	"billing-backend/internal/health"
	"billing-backend/internal/middleware"
	"billing-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUsers map[string]*models.User

func (u staticUsers) Get(_ context.Context, id string) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

type upDB struct{}

func (upDB) Ping(context.Context) error { return nil }

type noCache struct{}

func (noCache) Enabled() bool { return false }

func (noCache) IsHealthy(context.Context) bool { return false }

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager, staticUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "billing-backend"
	cfg.JWT.ExpirationHours = 1
	jwtManager := auth.NewJWTManager(cfg)

	users := staticUsers{
		"acct": {ID: "acct", Name: "Nadia", Role: auth.RoleAccountant, IsActive: true},
	}

	feed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r := NewRouter(
		handlers.NewAuthHandler(nil),
		handlers.NewClientHandler(nil),
		handlers.NewInvoiceHandler(nil, nil, nil),
		handlers.NewTransactionHandler(nil),
		handlers.NewReportHandler(nil),
		handlers.NewHealthHandler(health.NewHealthChecker(upDB{}, noCache{})),
		feed,
		middleware.NewAuthMiddleware(jwtManager, users),
	)
	return r, jwtManager, users
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(r, "GET", "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "GET", "/nope", "").Code)
}

func TestAPIRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/invoices", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/ws/invoices", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/invoices", "garbage").Code)
}

func TestRoutePermissions(t *testing.T) {
	r, jwtManager, users := newTestRouter(t)
	token, err := jwtManager.GenerateToken(users["acct"])
	require.NoError(t, err)

	// accountants do not manage clients or delete invoices
	assert.Equal(t, http.StatusForbidden, do(r, "POST", "/api/clients", token).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "DELETE", "/api/invoices/a", token).Code)

	rec := do(r, "GET", "/ws/invoices", token)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
