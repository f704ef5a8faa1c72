package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

func newBillService(store *memStore) *service.BillService {
	return service.NewBillService(store, store, observability.NewMetrics(), zap.NewNop())
}

func seedPaycheck(t *testing.T, store *memStore, userID, amount string, start, end time.Time) *domain.Paycheck {
	t.Helper()
	svc := newPaycheckService(store)
	return createPaycheck(t, svc, userID, amount, start, end)
}

func TestCreateBill_UpdatesTotals(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)
	ctx := context.Background()

	p := seedPaycheck(t, store, "user-1", "2000", date(2026, 3, 1), date(2026, 3, 14))

	bill, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID,
		Name:       "rent",
		Amount:     money("1200"),
		DueDate:    date(2026, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if bill.ID == "" {
		t.Fatal("expected bill ID")
	}

	got, err := store.GetPaycheck(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPaycheck: %v", err)
	}
	if !got.TotalBills.Equal(money("1200")) {
		t.Errorf("total_bills = %s, want 1200", got.TotalBills)
	}
	if !got.SavingsAmount.Equal(money("800")) {
		t.Errorf("savings_amount = %s, want 800", got.SavingsAmount)
	}
}

func TestCreateBill_BudgetExceeded(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)
	ctx := context.Background()

	p := seedPaycheck(t, store, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))

	if _, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "rent", Amount: money("800"), DueDate: date(2026, 3, 5),
	}); err != nil {
		t.Fatalf("first bill: %v", err)
	}

	_, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "car", Amount: money("300"), DueDate: date(2026, 3, 6),
	})
	var exceeded *domain.ErrBudgetExceeded
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}

	// The failed bill must not have been written.
	bills, _ := store.ListBillsByPaycheck(ctx, p.ID)
	if len(bills) != 1 {
		t.Errorf("expected 1 bill, got %d", len(bills))
	}
}

func TestCreateBill_DueDateWindow(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)
	ctx := context.Background()

	p := seedPaycheck(t, store, "user-1", "1000", date(2026, 3, 5), date(2026, 3, 18))

	var invalid *domain.ErrInvalidDueDate

	_, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "early", Amount: money("10"), DueDate: date(2026, 3, 1),
	})
	if !errors.As(err, &invalid) {
		t.Errorf("before coverage: expected ErrInvalidDueDate, got %v", err)
	}

	_, err = svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "late", Amount: money("10"), DueDate: date(2026, 3, 25),
	})
	if !errors.As(err, &invalid) {
		t.Errorf("after coverage: expected ErrInvalidDueDate, got %v", err)
	}

	if _, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "ok", Amount: money("10"), DueDate: date(2026, 3, 18),
	}); err != nil {
		t.Errorf("boundary due date should be valid: %v", err)
	}
}

func TestCreateBill_Forbidden(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)

	p := seedPaycheck(t, store, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))

	_, err := svc.CreateBill(context.Background(), "user-2", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "rent", Amount: money("100"), DueDate: date(2026, 3, 5),
	})
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateBill_RecomputesTotals(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)
	ctx := context.Background()

	p := seedPaycheck(t, store, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))
	bill, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "rent", Amount: money("500"), DueDate: date(2026, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	newAmount := money("650")
	updated, err := svc.UpdateBill(ctx, "user-1", bill.ID, &domain.UpdateBillRequest{Amount: &newAmount})
	if err != nil {
		t.Fatalf("UpdateBill: %v", err)
	}
	if !updated.Amount.Equal(money("650")) {
		t.Errorf("amount = %s, want 650", updated.Amount)
	}

	got, _ := store.GetPaycheck(ctx, p.ID)
	if !got.TotalBills.Equal(money("650")) {
		t.Errorf("total_bills = %s, want 650", got.TotalBills)
	}
	if !got.SavingsAmount.Equal(money("350")) {
		t.Errorf("savings_amount = %s, want 350", got.SavingsAmount)
	}
}

func TestDeleteBill_RestoresTotals(t *testing.T) {
	store := newMemStore()
	svc := newBillService(store)
	ctx := context.Background()

	p := seedPaycheck(t, store, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))
	bill, err := svc.CreateBill(ctx, "user-1", &domain.CreateBillRequest{
		PaycheckID: p.ID, Name: "rent", Amount: money("500"), DueDate: date(2026, 3, 5),
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	if err := svc.DeleteBill(ctx, "user-1", bill.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}

	got, _ := store.GetPaycheck(ctx, p.ID)
	if !got.TotalBills.IsZero() {
		t.Errorf("total_bills = %s, want 0", got.TotalBills)
	}
	if !got.SavingsAmount.Equal(money("1000")) {
		t.Errorf("savings_amount = %s, want 1000", got.SavingsAmount)
	}
}
