package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/sellspay/settlements-backend/pkg/config"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API client plus env-specific metadata. It exposes the
// two Connect operations the settlement core needs: moving platform-held funds
// into a connected account and paying out the connected account's balance.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:           api,
		environment:   env,
		signingSecret: signingSecret,
	}, nil
}

// Transfer moves platform funds into the connected account's Stripe balance.
// It returns the provider-assigned transfer id.
func (c *Client) Transfer(ctx context.Context, accountID string, amountCents int64) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("stripe client not initialized")
	}
	if accountID == "" {
		return "", errors.New("destination account id is required")
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("transfer amount must be positive, got %d", amountCents)
	}

	params := &stripe.TransferCreateParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(accountID),
	}
	transfer, err := c.api.V1Transfers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer: %w", err)
	}
	return transfer.ID, nil
}

// Payout disburses the connected account's balance to its external account.
// When instant is set the payout uses Stripe's instant rail. It returns the
// provider-assigned payout id.
func (c *Client) Payout(ctx context.Context, accountID string, amountCents int64, instant bool) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("stripe client not initialized")
	}
	if accountID == "" {
		return "", errors.New("connected account id is required")
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("payout amount must be positive, got %d", amountCents)
	}

	method := "standard"
	if instant {
		method = "instant"
	}
	params := &stripe.PayoutCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Method:   stripe.String(method),
	}
	params.SetStripeAccount(accountID)

	payout, err := c.api.V1Payouts.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("stripe payout: %w", err)
	}
	return payout.ID, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
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

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
