package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)

// Client wraps Stripe's API client plus env-specific metadata. The key prefix
// is checked against the configured environment so a live key can never land
// in a test deploy (or the reverse).
type Client struct {
	environment   string
	signingSecret string
	priceID       string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	client := &Client{
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.Secret),
		priceID:       strings.TrimSpace(cfg.SubscriptionPriceID),
	}
	if client.signingSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	if client.priceID == "" {
		return nil, errors.New("stripe subscription price id is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("stripe api key is required")
	}
	if err := checkKeyPrefix(env, apiKey); err != nil {
		return nil, err
	}

	// The session and subscription wrappers call the stripe-go package-level
	// API, which reads the global key.
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}
	return client, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// SubscriptionPriceID returns the recurring price sold by the app.
func (c *Client) SubscriptionPriceID() string {
	if c == nil {
		return ""
	}
	return c.priceID
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	switch env {
	case "":
		return testEnv, nil
	case testEnv, liveEnv:
		return env, nil
	}
	return "", errInvalidStripeEnv
}

func checkKeyPrefix(env, key string) error {
	want := "sk_" + env
	alt := "rk_" + env
	if strings.HasPrefix(key, want) || strings.HasPrefix(key, alt) {
		return nil
	}
	return fmt.Errorf("stripe environment %q requires a %s/%s secret key", env, want, alt)
}
