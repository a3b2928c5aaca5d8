package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/db/models"
	"github.com/showsettle/showsettle-backend/pkg/enums"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
)

var testStripeConfig = config.StripeConfig{
	SubscriptionPriceID: "price_pro",
	CheckoutSuccessURL:  "https://app.example.com/billing/success",
	CheckoutCancelURL:   "https://app.example.com/billing/cancel",
	PortalReturnURL:     "https://app.example.com/account",
}

func TestServiceGetSubscription(t *testing.T) {
	userID := uuid.New()
	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	repo := &stubRepo{subscription: &models.Subscription{
		UserID:           userID,
		Status:           enums.SubscriptionStatusActive,
		StripePriceID:    "price_pro",
		CurrentPeriodEnd: &end,
	}}
	svc := mustBuildService(t, repo, &stubSessions{})

	dto, err := svc.GetSubscription(context.Background(), userID)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if dto.Status != enums.SubscriptionStatusActive || dto.StripePriceID != "price_pro" {
		t.Fatalf("unexpected projection: %+v", dto)
	}
}

func TestServiceGetSubscriptionAbsent(t *testing.T) {
	svc := mustBuildService(t, &stubRepo{}, &stubSessions{})

	_, err := svc.GetSubscription(context.Background(), uuid.New())
	if err == nil {
		t.Fatalf("expected not found")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreateCheckoutSessionStampsUserMetadata(t *testing.T) {
	sessions := &stubSessions{
		checkout: &stripe.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/cs_test"},
	}
	svc := mustBuildService(t, &stubRepo{}, sessions)
	userID := uuid.New()

	dto, err := svc.CreateCheckoutSession(context.Background(), userID, "promoter@example.com")
	if err != nil {
		t.Fatalf("create checkout session: %v", err)
	}
	if dto.SessionID != "cs_test" || dto.URL == "" {
		t.Fatalf("unexpected session dto: %+v", dto)
	}

	params := sessions.checkoutParams
	if params == nil {
		t.Fatalf("expected checkout params to be sent")
	}
	if params.Metadata["user_id"] != userID.String() {
		t.Fatalf("expected user id in session metadata")
	}
	if params.SubscriptionData == nil || params.SubscriptionData.Metadata["user_id"] != userID.String() {
		t.Fatalf("expected user id in subscription metadata")
	}
	if len(params.LineItems) != 1 || *params.LineItems[0].Price != "price_pro" {
		t.Fatalf("expected configured price on the line item")
	}
	if *params.SuccessURL != testStripeConfig.CheckoutSuccessURL {
		t.Fatalf("expected configured success url")
	}
}

func TestServiceCreatePortalSessionRequiresCustomer(t *testing.T) {
	svc := mustBuildService(t, &stubRepo{}, &stubSessions{})

	_, err := svc.CreatePortalSession(context.Background(), uuid.New())
	if err == nil {
		t.Fatalf("expected not found without mirror row")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreatePortalSession(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{subscription: &models.Subscription{
		UserID:           userID,
		StripeCustomerID: "cus_123",
		Status:           enums.SubscriptionStatusActive,
	}}
	sessions := &stubSessions{
		portal: &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/session"},
	}
	svc := mustBuildService(t, repo, sessions)

	dto, err := svc.CreatePortalSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("create portal session: %v", err)
	}
	if dto.URL == "" {
		t.Fatalf("expected portal url")
	}
	if sessions.portalParams == nil || *sessions.portalParams.Customer != "cus_123" {
		t.Fatalf("expected portal bound to mirrored customer")
	}
}

func mustBuildService(t *testing.T, repo Repository, sessions stripeSessionClient) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Sessions:     sessions,
		StripeConfig: testStripeConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubRepo struct {
	subscription *models.Subscription
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.subscription = sub
	return nil
}

func (s *stubRepo) UpdateSubscription(_ context.Context, sub *models.Subscription) error {
	s.subscription = sub
	return nil
}

func (s *stubRepo) FindSubscriptionByUserID(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if s.subscription != nil && s.subscription.UserID == userID {
		return s.subscription, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindSubscriptionByStripeID(_ context.Context, stripeID string) (*models.Subscription, error) {
	if s.subscription != nil && s.subscription.StripeSubscriptionID == stripeID {
		return s.subscription, nil
	}
	return nil, nil
}

type stubSessions struct {
	checkout       *stripe.CheckoutSession
	portal         *stripe.BillingPortalSession
	checkoutParams *stripe.CheckoutSessionParams
	portalParams   *stripe.BillingPortalSessionParams
}

func (s *stubSessions) NewCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.checkoutParams = params
	if s.checkout != nil {
		return s.checkout, nil
	}
	return &stripe.CheckoutSession{ID: "cs_stub", URL: "https://checkout.stripe.com/stub"}, nil
}

func (s *stubSessions) NewPortalSession(_ context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	s.portalParams = params
	if s.portal != nil {
		return s.portal, nil
	}
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/stub"}, nil
}
