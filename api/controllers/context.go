package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/api/middleware"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

// authedUserID resolves the authenticated user from the request context. The
// auth middleware guarantees it for protected routes; an empty value means
// the route was wired without it.
func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}
