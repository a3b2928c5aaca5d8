package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/showsettle/showsettle-backend/api/responses"
	stripewebhook "github.com/showsettle/showsettle-backend/internal/webhooks/stripe"
	pkgerrors "github.com/showsettle/showsettle-backend/pkg/errors"
	"github.com/showsettle/showsettle-backend/pkg/logger"
	"github.com/showsettle/showsettle-backend/pkg/metrics"
)

type stripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (stripewebhook.Outcome, error)
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies, deduplicates, and reconciles Stripe subscription
// lifecycle events. Handler failures still ack with 200 after releasing the
// dedup mark, so a replayed delivery can reprocess the event; the state
// checks inside the reconciler keep the replay convergent.
func StripeWebhook(svc stripeWebhookService, client stripeClient, guard stripeWebhookGuard, wm *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			wm.IncSkipped(string(event.Type))
			responses.WriteSuccess(w, nil)
			return
		}

		start := time.Now()
		outcome, err := svc.HandleEvent(ctx, &event)
		wm.ObserveDuration(string(event.Type), time.Since(start))

		if err != nil {
			wm.IncFailed(string(event.Type))
			_ = guard.Delete(ctx, event.ID)
			if logg != nil {
				ctx = logg.WithField(ctx, "stripe_event_id", event.ID)
				logg.Error(ctx, "stripe webhook handler failed", err)
			}
			responses.WriteSuccess(w, nil)
			return
		}

		switch outcome {
		case stripewebhook.OutcomeHandled:
			wm.IncHandled(string(event.Type))
		case stripewebhook.OutcomeSkipped:
			wm.IncSkipped(string(event.Type))
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s %s", event.ID, outcome))
		}
		responses.WriteSuccess(w, nil)
	}
}
