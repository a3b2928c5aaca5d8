package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/api/responses"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

type accessChecker interface {
	HasAccess(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireEntitlement gates premium routes behind a fresh entitlement lookup.
// Must run after Auth; access is re-checked on every request rather than
// cached in the token.
func RequireEntitlement(checker accessChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if checker == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement checker unavailable"))
				return
			}

			userID, err := uuid.Parse(UserIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			allowed, err := checker.HasAccess(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !allowed {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "active subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
