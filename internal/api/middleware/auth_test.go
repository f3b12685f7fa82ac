package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/mocks"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)

func (f resolverFunc) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return f(ctx, id)
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error.Message
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	user := &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		Role:           domain.RoleUser,
		HashedPassword: "$2a$10$secret",
	}
	resolver := resolverFunc(func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		switch id {
		case user.ID:
			return user, nil
		case uuid.Nil:
			return nil, errors.New("connection refused")
		}
		return nil, store.ErrUserNotFound
	})

	tests := []struct {
		name           string
		authHeader     string
		validateErr    error
		claims         *auth.Claims
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			claims:         &auth.Claims{UserID: user.ID},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "scheme is case-insensitive",
			authHeader:     "bearer valid-token",
			claims:         &auth.Claims{UserID: user.ID},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing auth header",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Not authorized to access this route",
		},
		{
			name:           "invalid auth format",
			authHeader:     "InvalidFormat",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Not authorized to access this route",
		},
		{
			name:           "empty bearer token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Not authorized to access this route",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired-token",
			validateErr:    auth.ErrExpiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Token expired",
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			validateErr:    auth.ErrInvalidToken,
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid token",
		},
		{
			name:           "user no longer exists",
			authHeader:     "Bearer orphan-token",
			claims:         &auth.Claims{UserID: uuid.New()},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid token",
		},
		{
			name:           "user lookup failure",
			authHeader:     "Bearer valid-token",
			claims:         &auth.Claims{UserID: uuid.Nil},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mocks.MockJWTService{Claims: tt.claims, ValidateErr: tt.validateErr}
			mw := NewAuthMiddleware(jwtService, resolver)

			var seen *domain.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetUser(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			mw.Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Nil(t, seen, "next handler must not run")
				assert.Equal(t, tt.expectedMsg, errorMessage(t, rr))
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, user.ID, seen.ID)
			assert.Empty(t, seen.HashedPassword, "hash must not reach handlers")
			assert.NotEmpty(t, user.HashedPassword, "stored user must not be mutated")
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		user           *domain.User
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "admin allowed",
			user:           &domain.User{ID: uuid.New(), Role: domain.RoleAdmin},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "user forbidden",
			user:           &domain.User{ID: uuid.New(), Role: domain.RoleUser},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "User role user is not authorized to access this route",
		},
		{
			name:           "unauthenticated",
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Not authorized to access this route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.user != nil {
				req = req.WithContext(shared.WithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			RequireRole(domain.RoleAdmin)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, errorMessage(t, rr))
			}
		})
	}
}
