package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Session statuses reported by the payment processor.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

type CreateSessionRequest struct {
	Items      []SessionItem `json:"line_items"`
	Currency   string        `json:"currency"`
	SuccessURL string        `json:"success_url"`
	CancelURL  string        `json:"cancel_url"`
	Reference  string        `json:"client_reference_id"`
}

type SessionItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Quantity int32  `json:"quantity"`
}

type Session struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
}

// Client talks to the external checkout processor. Transport and
// decoding failures are returned as-is so callers can treat them as
// transient instead of a definitive session state.
type Client interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

type httpClient struct {
	baseURL  string
	apiKey   string
	currency string
	client   *http.Client
	tracer   trace.Tracer
}

func NewClient(baseURL, apiKey, currency string, timeout time.Duration) Client {
	return &httpClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		currency: currency,
		client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("payment_client"),
	}
}

func (c *httpClient) CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "PaymentClient.CreateSession")
	defer span.End()

	if req.Currency == "" {
		req.Currency = c.currency
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/checkout/sessions",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}

	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	var session Session
	if err := c.do(httpReq, &session); err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String("session_id", session.ID),
	)

	return &session, nil
}

func (c *httpClient) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := c.tracer.Start(ctx, "PaymentClient.GetSession")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/v1/checkout/sessions/"+sessionID,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}

	var session Session
	if err := c.do(httpReq, &session); err != nil {
		span.RecordError(err)

		return nil, err
	}

	return &session, nil
}

func (c *httpClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("payment processor returned %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode payment response: %w", err)
	}

	return nil
}
