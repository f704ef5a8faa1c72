package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

type mockBillingProvider struct {
	customersCreated int
	attachedMethods  []string
	canceledSubs     []string
	subStatus        string
	err              error
}

func (m *mockBillingProvider) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.customersCreated++
	return "cus_test", nil
}

func (m *mockBillingProvider) AttachPaymentMethod(_ context.Context, _, paymentMethodID string) error {
	if m.err != nil {
		return m.err
	}
	m.attachedMethods = append(m.attachedMethods, paymentMethodID)
	return nil
}

func (m *mockBillingProvider) CreateSubscription(_ context.Context, _, _ string) (*domain.Subscription, error) {
	if m.err != nil {
		return nil, m.err
	}
	status := m.subStatus
	if status == "" {
		status = "active"
	}
	return &domain.Subscription{SubscriptionID: "sub_test", SubscriptionStatus: status}, nil
}

func (m *mockBillingProvider) CancelSubscription(_ context.Context, subscriptionID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.canceledSubs = append(m.canceledSubs, subscriptionID)
	return "canceled", nil
}

func (m *mockBillingProvider) CreateAccountLink(_ context.Context, _ string) (*domain.AccountLinkResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AccountLinkResponse{URL: "https://billing.example/session", ExpiresAt: 1780000000}, nil
}

func seedUser(store *memAuthStore, id string) *domain.User {
	u := &domain.User{ID: id, Email: id + "@example.com", Name: "Test User", IsVerified: true}
	store.users[id] = u
	return u
}

func TestSubscribe(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")

	sub, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.UserID != "user-1" || sub.SubscriptionStatus != "active" {
		t.Errorf("sub = %+v, want user-1/active", sub)
	}
	if provider.customersCreated != 1 {
		t.Errorf("customers created = %d, want 1", provider.customersCreated)
	}
	if store.users["user-1"].StripeCustomerID != "cus_test" {
		t.Errorf("customer ID not persisted: %q", store.users["user-1"].StripeCustomerID)
	}
	if len(provider.attachedMethods) != 1 || provider.attachedMethods[0] != "pm_card" {
		t.Errorf("attached = %v, want [pm_card]", provider.attachedMethods)
	}
}

func TestSubscribe_ActiveConflict(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")
	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	_, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_other"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSubscribe_ReusesCustomer(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())
	ctx := context.Background()

	u := seedUser(store, "user-1")
	u.StripeCustomerID = "cus_existing"

	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if provider.customersCreated != 0 {
		t.Errorf("customers created = %d, want 0", provider.customersCreated)
	}
}

func TestCancel(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")
	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	canceled, err := svc.Cancel(ctx, "user-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if canceled.SubscriptionStatus != "canceled" {
		t.Errorf("status = %q, want canceled", canceled.SubscriptionStatus)
	}
	if len(provider.canceledSubs) != 1 || provider.canceledSubs[0] != "sub_test" {
		t.Errorf("canceled = %v, want [sub_test]", provider.canceledSubs)
	}

	got, err := svc.GetSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.SubscriptionStatus != "canceled" {
		t.Errorf("persisted status = %q, want canceled", got.SubscriptionStatus)
	}
}

func TestCancel_NoSubscription(t *testing.T) {
	store := newMemAuthStore()
	svc := service.NewBillingService(store, &mockBillingProvider{}, "price_test", zap.NewNop())

	seedUser(store, "user-1")

	_, err := svc.Cancel(context.Background(), "user-1")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscribe_ProviderFailure(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{err: &domain.ErrExternalService{Service: "stripe", Err: errors.New("boom")}}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())

	seedUser(store, "user-1")

	_, err := svc.Subscribe(context.Background(), "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"})
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestHandleWebhookEvent_StatusUpdate(t *testing.T) {
	store := newMemAuthStore()
	svc := service.NewBillingService(store, &mockBillingProvider{}, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")
	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := &domain.StripeWebhookEvent{ID: "evt_1", Type: "customer.subscription.updated"}
	event.Data.Object.ID = "sub_test"
	event.Data.Object.Status = "past_due"

	if err := svc.HandleWebhookEvent(ctx, event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
	got, err := svc.GetSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.SubscriptionStatus != "past_due" {
		t.Errorf("status = %q, want past_due", got.SubscriptionStatus)
	}
}

func TestHandleWebhookEvent_Deleted(t *testing.T) {
	store := newMemAuthStore()
	svc := service.NewBillingService(store, &mockBillingProvider{}, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")
	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := &domain.StripeWebhookEvent{ID: "evt_2", Type: "customer.subscription.deleted"}
	event.Data.Object.ID = "sub_test"
	event.Data.Object.Status = "active"

	if err := svc.HandleWebhookEvent(ctx, event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
	got, err := svc.GetSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.SubscriptionStatus != "canceled" {
		t.Errorf("status = %q, want canceled", got.SubscriptionStatus)
	}
	if got.SubscriptionEnd == nil {
		t.Error("expected subscription end to be recorded")
	}
}

func TestHandleWebhookEvent_Ignored(t *testing.T) {
	store := newMemAuthStore()
	svc := service.NewBillingService(store, &mockBillingProvider{}, "price_test", zap.NewNop())
	ctx := context.Background()

	seedUser(store, "user-1")
	if _, err := svc.Subscribe(ctx, "user-1", &domain.SubscribeRequest{PaymentMethodID: "pm_card"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Unknown subscription IDs and untracked event types are both
	// acknowledged without touching the stored row.
	unknown := &domain.StripeWebhookEvent{ID: "evt_3", Type: "customer.subscription.updated"}
	unknown.Data.Object.ID = "sub_other"
	unknown.Data.Object.Status = "past_due"
	if err := svc.HandleWebhookEvent(ctx, unknown); err != nil {
		t.Fatalf("HandleWebhookEvent unknown sub: %v", err)
	}

	untracked := &domain.StripeWebhookEvent{ID: "evt_4", Type: "invoice.payment_succeeded"}
	untracked.Data.Object.ID = "sub_test"
	untracked.Data.Object.Status = "past_due"
	if err := svc.HandleWebhookEvent(ctx, untracked); err != nil {
		t.Fatalf("HandleWebhookEvent untracked type: %v", err)
	}

	got, err := svc.GetSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if got.SubscriptionStatus != "active" {
		t.Errorf("status = %q, want active", got.SubscriptionStatus)
	}
}

func TestAccountLink(t *testing.T) {
	store := newMemAuthStore()
	provider := &mockBillingProvider{}
	svc := service.NewBillingService(store, provider, "price_test", zap.NewNop())

	seedUser(store, "user-1")

	link, err := svc.AccountLink(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("AccountLink: %v", err)
	}
	if link.URL == "" {
		t.Error("expected portal URL")
	}
	// First use lazily creates the customer.
	if provider.customersCreated != 1 {
		t.Errorf("customers created = %d, want 1", provider.customersCreated)
	}
}
