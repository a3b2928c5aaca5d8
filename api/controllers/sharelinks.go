package controllers

import (
	"net/http"

	"github.com/showsettle/showsettle-backend/api/responses"
	"github.com/showsettle/showsettle-backend/api/validators"
	"github.com/showsettle/showsettle-backend/internal/sharelinks"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

type shareLinkToggleRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ShareLinkCreate mints a share link for the caller's show, returning the
// existing one unchanged when it was minted before.
func ShareLinkCreate(svc sharelinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "share link service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		showID, err := validators.ParseUUIDParam(r, "showId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.CreateOrGetLink(r.Context(), showID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, link)
	}
}

// ShareLinkToggle flips a link active or inactive without reminting the token.
func ShareLinkToggle(svc sharelinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "share link service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		showID, err := validators.ParseUUIDParam(r, "showId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body shareLinkToggleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.Toggle(r.Context(), showID, userID, *body.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, link)
	}
}
