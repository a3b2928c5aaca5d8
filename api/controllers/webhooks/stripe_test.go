package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	stripewebhook "github.com/showsettle/showsettle-backend/internal/webhooks/stripe"
)

type fakeStripeWebhookService struct {
	calls   int
	outcome stripewebhook.Outcome
	err     error
}

func (f *fakeStripeWebhookService) HandleEvent(_ context.Context, _ *stripe.Event) (stripewebhook.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeSigningClient struct {
	secret string
}

func (c *fakeSigningClient) SigningSecret() string {
	return c.secret
}

// memoryIdemStore satisfies redis.IdempotencyStore without a live Redis.
type memoryIdemStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryIdemStore() *memoryIdemStore {
	return &memoryIdemStore{data: make(map[string]string)}
}

func (s *memoryIdemStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryIdemStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *memoryIdemStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("ss:idempotency:%s:%s", scope, id)
}

func (s *memoryIdemStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// newWebhookHandler wires a handler over in-memory fakes, sharing the guard
// across requests so replay behavior can be exercised.
func newWebhookHandler(t *testing.T, service *fakeStripeWebhookService) http.HandlerFunc {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(newMemoryIdemStore(), time.Minute, "stripe-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	return StripeWebhook(service, &fakeSigningClient{secret: "whsec_test"}, guard, nil, nil)
}

func deliverEvent(handler http.HandlerFunc, payload []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sigHeader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookProcessesOnceAndSkipsReplay(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{outcome: stripewebhook.OutcomeHandled}
	handler := newWebhookHandler(t, service)

	if rec := deliverEvent(handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	// Same delivery id again: acked but never reaches the service.
	if rec := deliverEvent(handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestStripeWebhookRejectsInvalidSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	handler := newWebhookHandler(t, service)

	rec := deliverEvent(handler, payload, "t=1,v1=invalid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on invalid signature")
	}
}

func TestStripeWebhookHandlerFailureAcksAndReleasesGuard(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{err: errors.New("stripe unreachable")}
	handler := newWebhookHandler(t, service)

	if rec := deliverEvent(handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack on handler failure, got %d", rec.Code)
	}

	// The dedup mark was released, so a replay reaches the handler again.
	service.err = nil
	service.outcome = stripewebhook.OutcomeHandled
	if rec := deliverEvent(handler, payload, header); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec.Code)
	}
	if service.calls != 2 {
		t.Fatalf("expected replay to reprocess, call count %d", service.calls)
	}
}

func buildSignedEvent(t *testing.T) ([]byte, string) {
	t.Helper()

	rawSub, err := json.Marshal(&stripe.Subscription{
		ID:     "sub_" + uuid.NewString(),
		Status: stripe.SubscriptionStatusActive,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				CurrentPeriodStart: 1,
				CurrentPeriodEnd:   2,
				Price:              &stripe.Price{ID: "price_1"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}

	payload, err := json.Marshal(&stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypeCustomerSubscriptionUpdated,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawSub},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	return payload, signPayload(payload, "whsec_test", time.Now().Unix())
}

// signPayload reproduces Stripe's v1 signature scheme: HMAC-SHA256 over
// "<timestamp>.<payload>".
func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
