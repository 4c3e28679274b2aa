package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billing-backend/internal/auth"
	"billing-backend/internal/config"
	"billing-backend/internal/models"
	"billing-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers map[string]*models.User

func (m memUsers) Create(_ context.Context, u *models.User) error {
	m[u.Email] = u
	return nil
}

func (m memUsers) Get(_ context.Context, id string) (*models.User, error) {
	for _, u := range m {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT.Secret = "auth-handler-secret"
	cfg.JWT.Issuer = "billing-backend"
	cfg.JWT.ExpirationHours = 1

	users := memUsers{
		"nadia@example.com": {ID: "u1", Email: "nadia@example.com", PasswordHash: hash, Role: auth.RoleAccountant, IsActive: true},
		"karim@example.com":  {ID: "u2", Email: "karim@example.com", PasswordHash: hash, Role: auth.RoleEmployee, IsActive: false},
	}
	return NewAuthHandler(services.NewUserService(users, auth.NewJWTManager(cfg)))
}

func login(h *AuthHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginStatusCodes(t *testing.T) {
	h := newAuthHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"missing password", `{"email":"nadia@example.com"}`, http.StatusUnprocessableEntity},
		{"wrong password", `{"email":"nadia@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"ghost@example.com","password":"correct-horse"}`, http.StatusUnauthorized},
		{"suspended", `{"email":"karim@example.com","password":"correct-horse"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, login(h, tt.body).Code)
		})
	}
}

func TestLoginIssuesToken(t *testing.T) {
	h := newAuthHandler(t)

	rec := login(h, `{"email":" Nadia@Example.com ","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u1", resp.User.ID)
}
