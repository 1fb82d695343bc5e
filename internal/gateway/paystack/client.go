package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"drivelink/internal/service"
)

const defaultBaseURL = "https://api.paystack.co"

// Client talks to the Paystack REST API. It implements service.Gateway.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Paystack client.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// envelope is the common Paystack response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeCharge starts a hosted checkout session.
func (c *Client) InitializeCharge(ctx context.Context, email string, amount int64, metadata map[string]string) (*service.ChargeAuthorization, error) {
	body := map[string]any{
		"email":    email,
		"amount":   amount,
		"metadata": metadata,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := c.post(ctx, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	return &service.ChargeAuthorization{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
	}, nil
}

// VerifyTransaction fetches the authoritative state of a payment.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*service.GatewayTransaction, error) {
	var data struct {
		Reference string            `json:"reference"`
		Status    string            `json:"status"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := c.get(ctx, "/transaction/verify/"+url.PathEscape(reference), &data); err != nil {
		return nil, err
	}

	return &service.GatewayTransaction{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Metadata:  data.Metadata,
	}, nil
}

// InitiateTransfer sends funds to a verified recipient. Paystack deduplicates
// on the caller-supplied reference, so retries with the same reference do not
// move money twice.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference, reason string) (string, error) {
	body := map[string]any{
		"source":    "balance",
		"recipient": recipientCode,
		"amount":    amount,
		"reference": reference,
		"reason":    reason,
	}

	var data struct {
		TransferCode string `json:"transfer_code"`
		Reference    string `json:"reference"`
	}
	if err := c.post(ctx, "/transfer", body, &data); err != nil {
		return "", err
	}

	if data.Reference != "" {
		return data.Reference, nil
	}
	return data.TransferCode, nil
}

// Refund returns a charged payment to the payer.
func (c *Client) Refund(ctx context.Context, reference string, amount int64) error {
	body := map[string]any{
		"transaction": reference,
		"amount":      amount,
	}

	var data json.RawMessage
	return c.post(ctx, "/refund", body, &data)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", service.ErrGatewayUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	if !env.Status {
		return fmt.Errorf("gateway rejected request: %s", env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode gateway data: %w", err)
		}
	}

	return nil
}

// Ensure Client implements service.Gateway.
var _ service.Gateway = (*Client)(nil)
