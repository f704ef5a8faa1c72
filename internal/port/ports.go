// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// EmailSender delivers one-time verification codes to users.
type EmailSender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// BillingProvider wraps the payment processor (Stripe).
type BillingProvider interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	// CreateSubscription returns the provider-side subscription state;
	// the caller fills in UserID before persisting.
	CreateSubscription(ctx context.Context, customerID, priceID string) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (string, error)
	CreateAccountLink(ctx context.Context, customerID string) (*domain.AccountLinkResponse, error)
}
