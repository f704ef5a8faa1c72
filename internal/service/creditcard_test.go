package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

func newCardService(store *memStore) *service.CreditCardService {
	return service.NewCreditCardService(store, observability.NewMetrics(), zap.NewNop())
}

func TestCreateCardTracker_OptionalLimit(t *testing.T) {
	svc := newCardService(newMemStore())
	ctx := context.Background()

	limit := money("5000")
	card, err := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{
		CardName: "visa", Limit: &limit,
	})
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}
	if card.Limit == nil || !card.Limit.Equal(money("5000")) {
		t.Errorf("limit = %v, want 5000", card.Limit)
	}

	noLimit, err := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{CardName: "amex"})
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}
	if noLimit.Limit != nil {
		t.Errorf("limit = %v, want nil", noLimit.Limit)
	}

	zero := money("0")
	var verr *domain.ErrValidation
	if _, err := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{
		CardName: "bad", Limit: &zero,
	}); !errors.As(err, &verr) {
		t.Errorf("zero limit: expected validation error, got %v", err)
	}
}

func TestCardTransactions_PaymentAfterCharge(t *testing.T) {
	store := newMemStore()
	svc := newCardService(store)
	ctx := context.Background()

	card, err := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{CardName: "visa"})
	if err != nil {
		t.Fatalf("CreateTracker: %v", err)
	}

	// Balances start at zero, so a payment must precede a charge.
	if _, err := svc.AddTransaction(ctx, "user-1", card.ID, &domain.CreateTransactionRequest{
		Amount: money("300"), Type: domain.TransactionCredit, IsCleared: true, Description: "statement payment",
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, "user-1", card.ID, &domain.CreateTransactionRequest{
		Amount: money("120"), Type: domain.TransactionDebit, Description: "groceries",
	}); err != nil {
		t.Fatalf("charge: %v", err)
	}

	got, _ := store.GetCreditCardTracker(ctx, card.ID)
	if !got.CurrentBalance.Equal(money("300")) {
		t.Errorf("current = %s, want 300", got.CurrentBalance)
	}
	if !got.ClearedBalance.Equal(money("180")) {
		t.Errorf("cleared = %s, want 180", got.ClearedBalance)
	}
}

func TestCardListTrackers_SumsBalances(t *testing.T) {
	store := newMemStore()
	svc := newCardService(store)
	ctx := context.Background()

	c1, _ := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{CardName: "visa"})
	c2, _ := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{CardName: "amex"})
	svc.CreateTracker(ctx, "user-2", &domain.CreateCreditCardTrackerRequest{CardName: "other"})

	if _, err := svc.AddTransaction(ctx, "user-1", c1.ID, &domain.CreateTransactionRequest{
		Amount: money("100"), Type: domain.TransactionCredit, IsCleared: true,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, "user-1", c2.ID, &domain.CreateTransactionRequest{
		Amount: money("50"), Type: domain.TransactionCredit,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	list, total, err := svc.ListTrackers(ctx, "user-1", domain.ListQuery{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("ListTrackers: %v", err)
	}
	if total != 2 || len(list.Results) != 2 {
		t.Fatalf("expected 2 cards, got %d (total %d)", len(list.Results), total)
	}
	if !list.TotalBalance.Equal(money("100")) {
		t.Errorf("total_balance = %s, want 100", list.TotalBalance)
	}
	if !list.TotalClearedBalance.Equal(money("150")) {
		t.Errorf("total_cleared_balance = %s, want 150", list.TotalClearedBalance)
	}
}

func TestCard_OwnershipGuard(t *testing.T) {
	store := newMemStore()
	svc := newCardService(store)
	ctx := context.Background()

	card, _ := svc.CreateTracker(ctx, "user-1", &domain.CreateCreditCardTrackerRequest{CardName: "visa"})

	var forbidden *domain.ErrForbidden
	if _, err := svc.GetTracker(ctx, "user-2", card.ID); !errors.As(err, &forbidden) {
		t.Errorf("GetTracker: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteTracker(ctx, "user-2", card.ID); !errors.As(err, &forbidden) {
		t.Errorf("DeleteTracker: expected ErrForbidden, got %v", err)
	}
}
