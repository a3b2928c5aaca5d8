package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/showsettle/showsettle-backend/api/responses"
	"github.com/showsettle/showsettle-backend/internal/sharelinks"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

// PublicSharedShow resolves an opaque share token into the anonymous show
// projection. No authentication runs on this route; the token is the only
// credential.
func PublicSharedShow(svc sharelinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "share link service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "shared show not found"))
			return
		}

		show, err := svc.Resolve(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, show)
	}
}
