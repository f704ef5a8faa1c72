// Package stripe talks to the Stripe REST API for customers and
// subscriptions. Requests are form-encoded per Stripe's conventions.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/resilience"
)

var tracer = otel.Tracer("stripe")

// Client implements port.BillingProvider against the Stripe API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
}

// NewClient creates a new Stripe client. baseURL is normally
// https://api.stripe.com but is configurable for tests.
func NewClient(httpClient *http.Client, baseURL, secretKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		secretKey:  secretKey,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
	}
}

// do posts a form-encoded request and decodes the JSON response into out.
// It runs inside the circuit breaker with retry, and the bulkhead caps
// concurrent calls against the Stripe API.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrExternalService{Service: "stripe", Err: err}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var body *strings.Reader
			if form != nil {
				body = strings.NewReader(form.Encode())
			} else {
				body = strings.NewReader("")
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.SetBasicAuth(c.secretKey, "")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return fmt.Errorf("stripe API returned status %d", resp.StatusCode)
			}
			if out != nil {
				return json.NewDecoder(resp.Body).Decode(out)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		c.metrics.IncrExternalError("stripe")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "stripe"}
		}
		return &domain.ErrExternalService{Service: "stripe", Err: err}
	}
	return nil
}

// CreateCustomer registers the user as a Stripe customer and returns the
// customer ID.
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	ctx, span := tracer.Start(ctx, "StripeClient.CreateCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.email", email))

	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// AttachPaymentMethod attaches a payment method to the customer and makes
// it the default for invoices.
func (c *Client) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	ctx, span := tracer.Start(ctx, "StripeClient.AttachPaymentMethod")
	defer span.End()

	form := url.Values{}
	form.Set("customer", customerID)
	if err := c.do(ctx, http.MethodPost, "/v1/payment_methods/"+paymentMethodID+"/attach", form, nil); err != nil {
		return err
	}

	form = url.Values{}
	form.Set("invoice_settings[default_payment_method]", paymentMethodID)
	return c.do(ctx, http.MethodPost, "/v1/customers/"+customerID, form, nil)
}

type subscriptionResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

// CreateSubscription starts a subscription for the customer on the given
// price.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "StripeClient.CreateSubscription")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)

	var resp subscriptionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", form, &resp); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		SubscriptionID:     resp.ID,
		SubscriptionStatus: resp.Status,
	}
	if resp.CurrentPeriodStart > 0 {
		t := time.Unix(resp.CurrentPeriodStart, 0).UTC()
		sub.SubscriptionStart = &t
	}
	if resp.CurrentPeriodEnd > 0 {
		t := time.Unix(resp.CurrentPeriodEnd, 0).UTC()
		sub.SubscriptionEnd = &t
	}
	return sub, nil
}

// CancelSubscription cancels a subscription and returns the provider's
// resulting status.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (string, error) {
	ctx, span := tracer.Start(ctx, "StripeClient.CancelSubscription")
	defer span.End()

	var resp subscriptionResponse
	if err := c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+subscriptionID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// CreateAccountLink returns a billing portal session URL for the customer.
func (c *Client) CreateAccountLink(ctx context.Context, customerID string) (*domain.AccountLinkResponse, error) {
	ctx, span := tracer.Start(ctx, "StripeClient.CreateAccountLink")
	defer span.End()

	form := url.Values{}
	form.Set("customer", customerID)

	var resp struct {
		URL       string `json:"url"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form, &resp); err != nil {
		return nil, err
	}
	return &domain.AccountLinkResponse{URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}
