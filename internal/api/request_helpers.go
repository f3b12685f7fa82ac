package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
)

// actorFromRequest returns the authenticated user placed in the context by
// the authentication middleware. It writes a 401 when there is none.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := shared.UserFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

// taskIDFromPath parses the {id} path parameter. A malformed id is reported
// exactly like a missing task so the id format reveals nothing.
func taskIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("parse task id %q: %w", raw, store.ErrTaskNotFound))
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the body into dst and runs its validate tags.
// It writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequestBody, err))
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	return true
}
