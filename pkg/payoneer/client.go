package payoneer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellspay/settlements-backend/pkg/config"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

const (
	responseReadLimit  = int64(2048)
	defaultHTTPTimeout = 15 * time.Second
)

var errCredentialsRequired = errors.New("payoneer program id and api token are required")

// Client is the minimal Payoneer mass-payout integration, keyed by payee id.
type Client struct {
	httpClient *http.Client
	baseURL    string
	programID  string
	apiToken   string
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

// NewClient builds the Payoneer client from configuration.
func NewClient(cfg config.PayoneerConfig, opts ...Option) (*Client, error) {
	programID := strings.TrimSpace(cfg.ProgramID)
	apiToken := strings.TrimSpace(cfg.APIToken)
	if programID == "" || apiToken == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		programID:  programID,
		apiToken:   apiToken,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// SendPayout submits a payout to the given payee and returns the
// provider-assigned payment id.
func (c *Client) SendPayout(ctx context.Context, payeeID string, amountCents int64, description string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payoneer client not configured")
	}
	if strings.TrimSpace(payeeID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payee id is required")
	}
	if amountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}

	body := map[string]any{
		"payee_id":    payeeID,
		"amount":      decimal.NewFromInt(amountCents).Shift(-2).StringFixed(2),
		"currency":    "USD",
		"description": description,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payout request")
	}

	endpoint := fmt.Sprintf("%s/v4/programs/%s/masspayouts", c.baseURL, c.programID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProvider, err, "execute payout request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		return "", pkgerrors.Wrap(
			pkgerrors.CodeProvider,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"payout request rejected",
		)
	}

	var apiResp struct {
		PaymentID string `json:"payment_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeProvider, err, "decode payout response")
	}
	if apiResp.PaymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeProvider, "payout response missing payment id")
	}
	return apiResp.PaymentID, nil
}
