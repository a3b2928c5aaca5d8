package billing

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	portalsession "github.com/stripe/stripe-go/v84/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/showsettle/showsettle-backend/pkg/stripe"
)

type stripeSessionWrapper struct{}

// NewStripeSessionClient wraps the initialized Stripe client so the billing
// service can be tested without network calls.
func NewStripeSessionClient(api *pkgstripe.Client) stripeSessionClient {
	if api == nil {
		return nil
	}
	return &stripeSessionWrapper{}
}

func (w *stripeSessionWrapper) NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}

func (w *stripeSessionWrapper) NewPortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return portalsession.New(params)
}
