package controllers

import (
	"net/http"

	"github.com/showsettle/showsettle-backend/api/responses"
	"github.com/showsettle/showsettle-backend/internal/entitlements"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

// EntitlementMe reports whether the caller currently has premium access and,
// when present, the grant behind it.
func EntitlementMe(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
