package subscriptions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/showsettle/showsettle-backend/pkg/db/models"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

// MetadataUserIDKey is the checkout metadata key carrying the local user id.
const MetadataUserIDKey = "user_id"

// BuildSubscriptionFromStripe maps a Stripe subscription into the local mirror
// model for a first-time insert.
func BuildSubscriptionFromStripe(stripeSub *stripe.Subscription, userID uuid.UUID) (*models.Subscription, error) {
	if stripeSub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}
	status, err := MapStripeStatus(stripeSub.Status)
	if err != nil {
		return nil, err
	}

	start, end := PeriodFromSubscription(stripeSub)
	return &models.Subscription{
		UserID:               userID,
		StripeCustomerID:     CustomerIDFromSubscription(stripeSub),
		StripeSubscriptionID: stripeSub.ID,
		StripePriceID:        PriceIDFromSubscription(stripeSub),
		Status:               status,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		CancelAtPeriodEnd:    stripeSub.CancelAtPeriodEnd,
	}, nil
}

// UpdateSubscriptionFromStripe mutates the stored mirror with fresh Stripe
// data. The user binding never changes on update.
func UpdateSubscriptionFromStripe(target *models.Subscription, stripeSub *stripe.Subscription) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}
	status, err := MapStripeStatus(stripeSub.Status)
	if err != nil {
		return err
	}

	target.StripeSubscriptionID = stripeSub.ID
	target.Status = status
	if priceID := PriceIDFromSubscription(stripeSub); priceID != "" {
		target.StripePriceID = priceID
	}
	if customerID := CustomerIDFromSubscription(stripeSub); customerID != "" {
		target.StripeCustomerID = customerID
	}
	target.CurrentPeriodStart, target.CurrentPeriodEnd = PeriodFromSubscription(stripeSub)
	target.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	return nil
}

// UserIDFromMetadata extracts the local user id attached to checkout metadata.
func UserIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	if metadata == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription metadata is required")
	}
	raw, ok := metadata[MetadataUserIDKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id missing from metadata")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id metadata")
	}
	return id, nil
}

// EntitlementStatusFor derives the entitlement flag the reconciler writes for
// a mirrored provider status. Only active and trialing keep the paywall open.
func EntitlementStatusFor(status enums.SubscriptionStatus) enums.EntitlementStatus {
	if status.GrantsAccess() {
		return enums.EntitlementStatusActive
	}
	return enums.EntitlementStatusInactive
}

// MapStripeStatus converts Stripe's status string into the local enumeration.
func MapStripeStatus(raw stripe.SubscriptionStatus) (enums.SubscriptionStatus, error) {
	status, err := enums.ParseSubscriptionStatus(string(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unrecognized stripe subscription status")
	}
	return status, nil
}

// PeriodFromSubscription lifts the billing period bounds off the first
// subscription item, where Stripe reports them.
func PeriodFromSubscription(sub *stripe.Subscription) (*time.Time, *time.Time) {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, nil
	}
	item := sub.Items.Data[0]
	return toTimePtr(item.CurrentPeriodStart), toTimePtr(item.CurrentPeriodEnd)
}

// PriceIDFromSubscription returns the recurring price on the first item.
func PriceIDFromSubscription(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

// CustomerIDFromSubscription returns the expanded or bare customer id.
func CustomerIDFromSubscription(sub *stripe.Subscription) string {
	if sub == nil || sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
