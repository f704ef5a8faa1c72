package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var billingTracer = otel.Tracer("service/billing")

// BillingService manages the user's Stripe subscription lifecycle.
type BillingService struct {
	store    port.AuthStore
	provider port.BillingProvider
	priceID  string
	logger   *zap.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(store port.AuthStore, provider port.BillingProvider, priceID string, logger *zap.Logger) *BillingService {
	return &BillingService{store: store, provider: provider, priceID: priceID, logger: logger}
}

// ensureCustomer returns the user's Stripe customer ID, creating the
// customer on first use.
func (s *BillingService) ensureCustomer(ctx context.Context, user *domain.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := s.provider.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		return "", err
	}
	if err := s.store.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", fmt.Errorf("store customer id: %w", err)
	}
	user.StripeCustomerID = customerID
	return customerID, nil
}

// Subscribe attaches the payment method and starts a subscription on the
// configured price.
func (s *BillingService) Subscribe(ctx context.Context, userID string, req *domain.SubscribeRequest) (*domain.Subscription, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.Subscribe")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if req.PaymentMethodID == "" {
		return nil, &domain.ErrValidation{Field: "payment_method_id", Message: "required"}
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if existing != nil && existing.SubscriptionStatus == "active" {
		return nil, &domain.ErrConflict{Message: "subscription already active"}
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.provider.AttachPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, s.priceID)
	if err != nil {
		return nil, err
	}
	sub.UserID = userID
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("store subscription: %w", err)
	}

	s.logger.Info("subscription created",
		zap.String("user_id", userID),
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("status", sub.SubscriptionStatus),
	)
	return sub, nil
}

// Cancel cancels the user's subscription with the provider and records
// the returned status.
func (s *BillingService) Cancel(ctx context.Context, userID string) (*domain.Subscription, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.Cancel")
	defer span.End()

	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: userID}
	}

	status, err := s.provider.CancelSubscription(ctx, sub.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.SubscriptionStatus = status
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("store subscription: %w", err)
	}

	s.logger.Info("subscription canceled",
		zap.String("user_id", userID),
		zap.String("subscription_id", sub.SubscriptionID),
	)
	return sub, nil
}

// HandleWebhookEvent applies a Stripe subscription push to the local
// subscription row. Events for unknown subscriptions, and event types the
// service does not track, are acknowledged without effect so Stripe does
// not retry them.
func (s *BillingService) HandleWebhookEvent(ctx context.Context, event *domain.StripeWebhookEvent) error {
	ctx, span := billingTracer.Start(ctx, "BillingService.HandleWebhookEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
	default:
		return nil
	}

	sub, err := s.store.GetSubscriptionBySubscriptionID(ctx, event.Data.Object.ID)
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		s.logger.Warn("webhook for unknown subscription",
			zap.String("subscription_id", event.Data.Object.ID),
			zap.String("event_type", event.Type),
		)
		return nil
	}

	status := event.Data.Object.Status
	if event.Type == "customer.subscription.deleted" {
		status = "canceled"
	}
	sub.SubscriptionStatus = status
	if status == "canceled" && sub.SubscriptionEnd == nil {
		now := time.Now().UTC()
		sub.SubscriptionEnd = &now
	}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}

	s.logger.Info("subscription updated from webhook",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("status", status),
	)
	return nil
}

// GetSubscription returns the user's current subscription state.
func (s *BillingService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.GetSubscription")
	defer span.End()

	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: userID}
	}
	return sub, nil
}

// AccountLink returns a short-lived billing portal link for the user.
func (s *BillingService) AccountLink(ctx context.Context, userID string) (*domain.AccountLinkResponse, error) {
	ctx, span := billingTracer.Start(ctx, "BillingService.AccountLink")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.provider.CreateAccountLink(ctx, customerID)
}
