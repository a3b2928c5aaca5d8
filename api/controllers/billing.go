package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/api/middleware"
	"github.com/showsettle/showsettle-backend/api/responses"
	"github.com/showsettle/showsettle-backend/internal/billing"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

// BillingService is the surface the billing controllers need.
type BillingService interface {
	GetSubscription(ctx context.Context, userID uuid.UUID) (*billing.SubscriptionDTO, error)
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (*billing.CheckoutSessionDTO, error)
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (*billing.PortalSessionDTO, error)
}

// BillingSubscription returns the caller's mirrored Stripe subscription.
func BillingSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.GetSubscription(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}

// BillingCheckoutSession starts a Stripe Checkout session for the
// subscription price. The caller's user id rides in the session metadata so
// the webhook can bind the purchase back to the account.
func BillingCheckoutSession(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateCheckoutSession(r.Context(), userID, middleware.EmailFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// BillingPortalSession opens a Stripe billing portal session so subscribers
// can manage or cancel their plan.
func BillingPortalSession(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreatePortalSession(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
