package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

type stripeSessionClient interface {
	NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// SubscriptionDTO is the owner-facing projection of the subscription mirror.
type SubscriptionDTO struct {
	Status             enums.SubscriptionStatus `json:"status"`
	StripePriceID      string                   `json:"stripe_price_id"`
	CurrentPeriodStart *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time               `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
}

// CheckoutSessionDTO carries the hosted checkout redirect.
type CheckoutSessionDTO struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PortalSessionDTO carries the hosted billing portal redirect.
type PortalSessionDTO struct {
	URL string `json:"url"`
}

// Service orchestrates subscription reads and hosted Stripe sessions.
type Service struct {
	repo      Repository
	sessions  stripeSessionClient
	stripeCfg config.StripeConfig
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo         Repository
	Sessions     stripeSessionClient
	StripeConfig config.StripeConfig
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("stripe session client is required")
	}
	return &Service{
		repo:      params.Repo,
		sessions:  params.Sessions,
		stripeCfg: params.StripeConfig,
	}, nil
}

// GetSubscription returns the mirrored subscription for the owner, or
// NotFound when the user never checked out.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	return &SubscriptionDTO{
		Status:             sub.Status,
		StripePriceID:      sub.StripePriceID,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}, nil
}

// CreateCheckoutSession opens a hosted subscription checkout for the user.
// The user id rides along as metadata so the webhook reconciler can bind the
// resulting subscription back to the local account.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (*CheckoutSessionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	metadata := map[string]string{"user_id": userID.String()}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID.String()),
		SuccessURL:        stripe.String(s.stripeCfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(s.stripeCfg.CheckoutCancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.stripeCfg.SubscriptionPriceID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := s.sessions.NewCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &CheckoutSessionDTO{SessionID: session.ID, URL: session.URL}, nil
}

// CreatePortalSession opens the hosted billing portal for an existing
// customer. Users without a mirrored subscription have no Stripe customer to
// manage.
func (s *Service) CreatePortalSession(ctx context.Context, userID uuid.UUID) (*PortalSessionDTO, error) {
	sub, err := s.repo.FindSubscriptionByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}
	if sub.StripeCustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("subscription %s has no customer id", sub.ID))
	}

	session, err := s.sessions.NewPortalSession(ctx, &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.stripeCfg.PortalReturnURL),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create portal session")
	}
	return &PortalSessionDTO{URL: session.URL}, nil
}
