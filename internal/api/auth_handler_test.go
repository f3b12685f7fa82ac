package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/mocks"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUserService(users *mocks.MockUserStore) *service.UserServiceImpl {
	tokens := &mocks.MockJWTService{Token: "test-token", Lifetime: 24 * time.Hour}
	return service.NewUserService(users, &mocks.MockPasswordHasher{}, tokens, quietLogger())
}

// jsonRequest builds a request with body encoded as JSON. A nil actor leaves
// the request unauthenticated.
func jsonRequest(t *testing.T, method, target string, body any, actor *domain.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(shared.WithUser(req.Context(), actor))
	}
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     any
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "valid registration",
			payload:     map[string]any{"name": "Ada", "email": "ada@example.com", "password": "Passw0rdOK"},
			wantStatus:  http.StatusCreated,
			wantMessage: "User registered successfully",
		},
		{
			name:        "duplicate email",
			payload:     map[string]any{"name": "Ada", "email": "TAKEN@example.com", "password": "Passw0rdOK"},
			wantStatus:  http.StatusConflict,
			wantMessage: "Email already exists",
		},
		{
			name:        "weak password",
			payload:     map[string]any{"name": "Ada", "email": "ada@example.com", "password": "password"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Password must contain at least one uppercase letter, Password must contain at least one number",
		},
		{
			name:        "invalid role",
			payload:     map[string]any{"name": "Ada", "email": "ada@example.com", "password": "Passw0rdOK", "role": "root"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Role must be one of: user, admin",
		},
		{
			name:        "malformed JSON",
			payload:     `{"name": "Ada",`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			users := mocks.NewMockUserStore(&domain.User{
				ID: uuid.New(), Name: "Taken", Email: "taken@example.com", Role: domain.RoleUser,
			})
			handler := NewAuthHandler(newUserService(users))

			rr := httptest.NewRecorder()
			handler.Register(rr, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", tt.payload, nil))

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, tt.wantMessage, decodeBody[shared.ErrorResponse](t, rr).Error.Message)
				return
			}

			resp := decodeBody[AuthResponse](t, rr)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, "test-token", resp.Token)
			assert.Equal(t, int64(86400), resp.ExpiresIn)
			assert.Equal(t, "ada@example.com", resp.User.Email)
			assert.Equal(t, domain.RoleUser, resp.User.Role)
			assert.NotContains(t, rr.Body.String(), "password")
			assert.NotContains(t, rr.Body.String(), mocks.HashPrefix)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	existing := &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		Role:           domain.RoleUser,
		HashedPassword: mocks.HashPrefix + "Passw0rdOK",
	}

	tests := []struct {
		name        string
		payload     any
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "valid login",
			payload:     map[string]any{"email": "ada@example.com", "password": "Passw0rdOK"},
			wantStatus:  http.StatusOK,
			wantMessage: "Login successful",
		},
		{
			name:        "wrong password",
			payload:     map[string]any{"email": "ada@example.com", "password": "Wrong1234"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "unknown email",
			payload:     map[string]any{"email": "bob@example.com", "password": "Passw0rdOK"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "invalid email",
			payload:     map[string]any{"email": "not-an-email", "password": "Passw0rdOK"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid email format",
		},
		{
			name:        "missing password",
			payload:     map[string]any{"email": "ada@example.com"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := NewAuthHandler(newUserService(mocks.NewMockUserStore(existing)))

			rr := httptest.NewRecorder()
			handler.Login(rr, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", tt.payload, nil))

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, tt.wantMessage, decodeBody[shared.ErrorResponse](t, rr).Error.Message)
				return
			}
			resp := decodeBody[AuthResponse](t, rr)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, existing.ID, resp.User.ID)
			assert.Equal(t, "test-token", resp.Token)
		})
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	handler := NewAuthHandler(newUserService(mocks.NewMockUserStore()))
	user := &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}

	t.Run("returns the authenticated user", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		handler.Me(rr, jsonRequest(t, http.MethodGet, "/api/v1/auth/me", nil, user))

		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[MeResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		rr := httptest.NewRecorder()
		handler.Me(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil).WithContext(context.Background()))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
