package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/internal/billing"
	"github.com/showsettle/showsettle-backend/internal/entitlements"
	"github.com/showsettle/showsettle-backend/internal/subscriptions"
	"github.com/showsettle/showsettle-backend/pkg/db/models"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

const grantedByReconciler = "stripe_webhook"

// Outcome classifies what a delivery did to local state.
type Outcome string

const (
	// OutcomeHandled means the event mutated the mirror and entitlement.
	OutcomeHandled Outcome = "handled"
	// OutcomeSkipped means stored state already reflected the event.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored means the event type is not reconciled at all.
	OutcomeIgnored Outcome = "ignored"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the reconciler's dependencies.
type ServiceParams struct {
	BillingRepo       billing.Repository
	EntitlementsRepo  entitlements.Repository
	StripeClient      subscriptions.StripeSubscriptionClient
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service folds Stripe lifecycle events into the subscription mirror and the
// authoritative entitlement row. Every handler derives its own idempotency
// check from stored state, so redeliveries converge instead of double-applying.
type Service struct {
	billingRepo  billing.Repository
	entitlements entitlements.Repository
	stripe       subscriptions.StripeSubscriptionClient
	txRunner     txRunner
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.EntitlementsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "entitlements repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		billingRepo:  params.BillingRepo,
		entitlements: params.EntitlementsRepo,
		stripe:       params.StripeClient,
		txRunner:     params.TransactionRunner,
		logg:         params.Logger,
	}, nil
}

// HandleEvent dispatches a verified Stripe event to its reconciliation
// handler.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (Outcome, error) {
	if event == nil || event.Data == nil {
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		return s.handleCheckoutCompleted(ctx, &session)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.handleSubscriptionUpdated(ctx, &stripeSub)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var stripeSub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
			return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.handleSubscriptionDeleted(ctx, stripeSub.ID)
	case stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := event.GetObjectValue("subscription")
		if subscriptionID == "" {
			return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing from invoice event")
		}
		return s.handlePaymentFailed(ctx, subscriptionID)
	default:
		return OutcomeIgnored, nil
	}
}

// handleCheckoutCompleted binds a freshly purchased subscription to the local
// account named in the session metadata.
func (s *Service) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) (Outcome, error) {
	if session.Subscription == nil || session.Subscription.ID == "" {
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "checkout session carries no subscription")
	}
	subscriptionID := session.Subscription.ID

	userID, err := subscriptions.UserIDFromMetadata(session.Metadata)
	if err != nil {
		return OutcomeIgnored, err
	}

	stripeSub, err := s.stripe.Get(ctx, subscriptionID, &stripe.SubscriptionParams{})
	if err != nil {
		return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
	}

	outcome := OutcomeSkipped
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if stored != nil {
			// Redelivered checkout for a subscription already mirrored.
			return nil
		}

		mirror, err := subscriptions.BuildSubscriptionFromStripe(stripeSub, userID)
		if err != nil {
			return err
		}
		if mirror.StripeCustomerID == "" && session.Customer != nil {
			mirror.StripeCustomerID = session.Customer.ID
		}
		if err := repo.UpsertSubscription(ctx, mirror); err != nil {
			return err
		}
		outcome = OutcomeHandled
		return s.writeEntitlement(ctx, tx, mirror)
	})
	if err != nil {
		return OutcomeIgnored, err
	}
	if outcome == OutcomeSkipped {
		s.logSkip(ctx, subscriptionID, "subscription already mirrored")
	}
	return outcome, nil
}

// handleSubscriptionUpdated refreshes the mirror and entitlement from the new
// provider state. A missing mirror row means checkout never completed locally;
// the event is skipped, not retried.
func (s *Service) handleSubscriptionUpdated(ctx context.Context, stripeSub *stripe.Subscription) (Outcome, error) {
	outcome := OutcomeSkipped
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, stripeSub.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return nil
		}

		if err := subscriptions.UpdateSubscriptionFromStripe(stored, stripeSub); err != nil {
			return err
		}
		if err := repo.UpdateSubscription(ctx, stored); err != nil {
			return err
		}
		outcome = OutcomeHandled
		return s.writeEntitlement(ctx, tx, stored)
	})
	if err != nil {
		return OutcomeIgnored, err
	}
	if outcome == OutcomeSkipped {
		s.logSkip(ctx, stripeSub.ID, "no mirror row for updated subscription")
	}
	return outcome, nil
}

// handleSubscriptionDeleted marks the mirror canceled and closes the paywall.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, subscriptionID string) (Outcome, error) {
	return s.transition(ctx, subscriptionID, enums.SubscriptionStatusCanceled)
}

// handlePaymentFailed marks the mirror past_due and closes the paywall.
func (s *Service) handlePaymentFailed(ctx context.Context, subscriptionID string) (Outcome, error) {
	return s.transition(ctx, subscriptionID, enums.SubscriptionStatusPastDue)
}

// transition applies a terminal-ish status flip; a mirror already in the
// target status means the event was redelivered and nothing changes.
func (s *Service) transition(ctx context.Context, subscriptionID string, target enums.SubscriptionStatus) (Outcome, error) {
	if subscriptionID == "" {
		return OutcomeIgnored, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}

	outcome := OutcomeSkipped
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionByStripeID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if stored == nil || stored.Status == target {
			return nil
		}

		stored.Status = target
		if err := repo.UpdateSubscription(ctx, stored); err != nil {
			return err
		}
		outcome = OutcomeHandled
		return s.writeEntitlement(ctx, tx, stored)
	})
	if err != nil {
		return OutcomeIgnored, err
	}
	if outcome == OutcomeSkipped {
		s.logSkip(ctx, subscriptionID, fmt.Sprintf("mirror absent or already %s", target))
	}
	return outcome, nil
}

// writeEntitlement upserts the access grant derived from the mirror's status,
// in the same transaction as the mirror write.
func (s *Service) writeEntitlement(ctx context.Context, tx *gorm.DB, mirror *models.Subscription) error {
	metadata, err := json.Marshal(map[string]string{
		"stripe_subscription_id": mirror.StripeSubscriptionID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal entitlement metadata")
	}

	ent := &models.Entitlement{
		UserID:    mirror.UserID,
		Source:    enums.EntitlementSourceStripe,
		Status:    subscriptions.EntitlementStatusFor(mirror.Status),
		GrantedBy: grantedByReconciler,
		GrantedAt: nowUTC(),
		ExpiresAt: mirror.CurrentPeriodEnd,
		Metadata:  metadata,
	}
	return s.entitlements.WithTx(tx).Upsert(ctx, ent)
}

func (s *Service) logSkip(ctx context.Context, subscriptionID, reason string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "stripe_subscription_id", subscriptionID)
	s.logg.Info(ctx, "webhook event skipped: "+reason)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
