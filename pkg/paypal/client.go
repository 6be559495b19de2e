package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellspay/settlements-backend/pkg/config"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

const (
	tokenPath           = "/v1/oauth2/token"
	payoutsPath         = "/v1/payments/payouts"
	responseReadLimit   = int64(2048)
	tokenExpirySkew     = 30 * time.Second
	defaultHTTPTimeout  = 15 * time.Second
	payoutEmailSubject  = "You have a payout from SellsPay"
	payoutRecipientType = "EMAIL"
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
)

// Client wraps the PayPal Payouts API used for merchant-of-record settlement.
// Disbursements are submitted as single-item batches keyed by recipient email.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the PayPal client from configuration.
func NewClient(cfg config.PayPalConfig, opts ...Option) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SendPayout submits a single-item payout batch to the recipient email and
// returns the provider-assigned batch id.
func (c *Client) SendPayout(ctx context.Context, recipientEmail string, amountCents int64, note string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "paypal client not configured")
	}
	if strings.TrimSpace(recipientEmail) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if amountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}

	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"sender_batch_header": map[string]any{
			"email_subject": payoutEmailSubject,
		},
		"items": []map[string]any{
			{
				"recipient_type": payoutRecipientType,
				"receiver":       recipientEmail,
				"note":           note,
				"amount": map[string]string{
					"currency": "USD",
					"value":    decimal.NewFromInt(amountCents).Shift(-2).StringFixed(2),
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payout request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+payoutsPath, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProvider, err, "execute payout request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		return "", pkgerrors.Wrap(
			pkgerrors.CodeProvider,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"payout request rejected",
		)
	}

	var apiResp struct {
		BatchHeader struct {
			PayoutBatchID string `json:"payout_batch_id"`
		} `json:"batch_header"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProvider, err, "decode payout response")
	}
	if apiResp.BatchHeader.PayoutBatchID == "" {
		return "", pkgerrors.New(pkgerrors.CodeProvider, "payout response missing batch id")
	}
	return apiResp.BatchHeader.PayoutBatchID, nil
}

func (c *Client) accessTokenLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySkew)) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build token request")
	}
	httpReq.SetBasicAuth(c.clientID, c.clientSecret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute token request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		return "", pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"token request failed",
		)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if tokenResp.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "token response missing access token")
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
