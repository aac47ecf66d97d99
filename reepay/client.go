package reepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Client is the remote payment processor consumed by the sync service.
// All calls are synchronous and return either a parsed response or a
// structured *APIError.
type Client interface {
	GetInvoice(ctx context.Context, handle string) (*Invoice, error)
	CreateCharge(ctx context.Context, req *ChargeRequest) (*Charge, error)
	SettleCharge(ctx context.Context, handle string, req *SettleRequest) (*SettleResult, error)
	CancelCharge(ctx context.Context, handle string) (*Charge, error)
	CreateRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
	GetTransaction(ctx context.Context, invoiceHandle, transactionID string) (*Transaction, error)
	GetSubscription(ctx context.Context, handle string) (*Subscription, error)
	GetWebhookSettings(ctx context.Context) (*WebhookSettings, error)
}

type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

type HTTPClientOptions struct {
	APIKey  string
	BaseURL string
	// Timeout applies to every outbound call. Defaults to 60s.
	Timeout time.Duration
	// RetryDelay is the fixed wait before the single retry on a 429.
	RetryDelay time.Duration
}

func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}
	return &HTTPClient{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		retryDelay: opts.RetryDelay,
	}
}

func (c *HTTPClient) GetInvoice(ctx context.Context, handle string) (*Invoice, error) {
	invoice := &Invoice{}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("invoice/%s", handle), nil, invoice)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (c *HTTPClient) CreateCharge(ctx context.Context, req *ChargeRequest) (*Charge, error) {
	charge := &Charge{}
	err := c.call(ctx, http.MethodPost, "charge", req, charge)
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (c *HTTPClient) SettleCharge(ctx context.Context, handle string, req *SettleRequest) (*SettleResult, error) {
	result := &SettleResult{}
	err := c.call(ctx, http.MethodPost, fmt.Sprintf("charge/%s/settle", handle), req, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) CancelCharge(ctx context.Context, handle string) (*Charge, error) {
	charge := &Charge{}
	err := c.call(ctx, http.MethodPost, fmt.Sprintf("charge/%s/cancel", handle), nil, charge)
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (c *HTTPClient) CreateRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	result := &RefundResult{}
	err := c.call(ctx, http.MethodPost, "refund", req, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) GetTransaction(ctx context.Context, invoiceHandle, transactionID string) (*Transaction, error) {
	transaction := &Transaction{}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("invoice/%s/transaction/%s", invoiceHandle, transactionID), nil, transaction)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (c *HTTPClient) GetSubscription(ctx context.Context, handle string) (*Subscription, error) {
	subscription := &Subscription{}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("subscription/%s", handle), nil, subscription)
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

func (c *HTTPClient) GetWebhookSettings(ctx context.Context) (*WebhookSettings, error) {
	settings := &WebhookSettings{}
	err := c.call(ctx, http.MethodGet, "account/webhook_settings", nil, settings)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// call executes one request against the processor. A 429 response is
// retried exactly once after a fixed delay, any other failure is final.
func (c *HTTPClient) call(ctx context.Context, method, path string, body, out interface{}) error {
	operation := func() error {
		err := c.doOnce(ctx, method, path, body, out)
		if err != nil && !IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), 1), ctx))
	return err
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		payload = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/%s", c.baseURL, path), payload)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		// the error body is best effort, the status code alone is enough
		// to classify the failure
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			json.Unmarshal(respBody, apiErr)
			apiErr.HTTPStatus = resp.StatusCode
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
