package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
)

// ErrInvalidRequestBody is returned when a request body is not valid JSON
// for the target payload.
var ErrInvalidRequestBody = errors.New("invalid request body")

// Messages shared by several handlers.
const (
	msgInternal         = "Internal Server Error"
	msgNotAuthorized    = "Not authorized to access this route"
	msgInvalidToken     = "Invalid token"
	msgTokenExpired     = "Token expired"
	msgInvalidCreds     = "Invalid credentials"
	msgTaskNotFound     = "Task not found"
	msgUserNotFound     = "User not found"
	msgNotFound         = "Resource not found"
	msgEmailExists      = "Email already exists"
	msgDuplicate        = "Duplicate field value entered"
	msgInvalidEntity    = "Invalid entity data"
	msgInvalidRequest   = "Invalid request format"
	msgValidationFailed = "Validation error"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Validation errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrInvalidRequestBody),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrForbiddenRole),
		errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgInternal
	}

	var verr *domain.ValidationError
	var roleErr *service.RoleError

	switch {
	case errors.As(err, &verr):
		if len(verr.Violations) == 0 {
			return msgValidationFailed
		}
		return verr.Error()
	case errors.Is(err, domain.ErrValidation):
		return msgValidationFailed
	case errors.Is(err, ErrInvalidRequestBody):
		return msgInvalidRequest
	case errors.Is(err, store.ErrInvalidEntity):
		return msgInvalidEntity

	case errors.Is(err, auth.ErrExpiredToken):
		return msgTokenExpired
	case errors.Is(err, auth.ErrInvalidToken):
		return msgInvalidToken
	case errors.Is(err, service.ErrInvalidCredentials):
		return msgInvalidCreds
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return msgNotAuthorized

	case errors.As(err, &roleErr):
		return roleErr.Error()
	case errors.Is(err, service.ErrForbiddenRole),
		errors.Is(err, domain.ErrForbidden):
		return "Not authorized to perform this action"

	case errors.Is(err, store.ErrTaskNotFound):
		return msgTaskNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return msgUserNotFound
	case errors.Is(err, store.ErrNotFound):
		return msgNotFound

	case errors.Is(err, store.ErrEmailExists):
		return msgEmailExists
	case errors.Is(err, store.ErrDuplicate):
		return msgDuplicate

	default:
		return msgInternal
	}
}

// HandleAPIError translates err into the error envelope. It is the single
// place where internal errors become HTTP responses; validation failures carry
// their violations and 401s are logged at WARN.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	var opts []shared.ResponseOption
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		opts = append(opts, shared.WithViolations(verr.Violations))
	}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}
