// Package email sends transactional mail through an HTTP mail API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/resilience"
)

var tracer = otel.Tracer("email")

// Client delivers verification codes with retry, circuit breaker and
// tracing around the mail provider's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	metrics    *observability.Metrics
}

// NewClient creates a new mail client.
func NewClient(httpClient *http.Client, baseURL, apiKey, from string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		cb:         cb,
		cfg:        cfg,
		metrics:    metrics,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendOTP emails a one-time verification code.
func (c *Client) SendOTP(ctx context.Context, to, code string) error {
	ctx, span := tracer.Start(ctx, "EmailClient.SendOTP")
	defer span.End()
	span.SetAttributes(attribute.String("email.to", to))

	body := sendRequest{
		From:    c.from,
		To:      to,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires shortly.", code),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	_, err = c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return fmt.Errorf("mail API returned status %d", resp.StatusCode)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})

	if err != nil {
		c.metrics.IncrExternalError("email")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "email"}
		}
		return &domain.ErrExternalService{Service: "email", Err: err}
	}
	return nil
}
