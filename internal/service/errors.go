package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/task-api/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to status codes.
var (
	// ErrForbiddenRole indicates the acting user's role may not perform the
	// operation. API layer maps this to HTTP 403 Forbidden.
	ErrForbiddenRole = errors.New("role not authorized")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RoleError reports which role was refused. It unwraps to ErrForbiddenRole.
type RoleError struct {
	Role domain.Role
}

// NewRoleError creates a RoleError for role.
func NewRoleError(role domain.Role) *RoleError {
	return &RoleError{Role: role}
}

// Error returns the client-facing refusal message.
func (e *RoleError) Error() string {
	return fmt.Sprintf("User role %s is not authorized to access this route", e.Role)
}

// Unwrap allows errors.Is(err, ErrForbiddenRole).
func (e *RoleError) Unwrap() error {
	return ErrForbiddenRole
}

// requireRole returns a *RoleError unless actor has one of roles.
func requireRole(actor *domain.User, roles ...domain.Role) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return NewRoleError(actor.Role)
}
