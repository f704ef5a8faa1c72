package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/cache"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPaycheckService(store *memStore) *service.PaycheckService {
	return service.NewPaycheckService(
		store, store, store,
		cache.New[*domain.Paycheck](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func createPaycheck(t *testing.T, svc *service.PaycheckService, userID string, amount string, start, end time.Time) *domain.Paycheck {
	t.Helper()
	p, err := svc.CreatePaycheck(context.Background(), userID, &domain.CreatePaycheckRequest{
		Amount:        money(amount),
		PaycheckDate:  start,
		Frequency:     domain.FrequencyBiweekly,
		CoverageStart: start,
		CoverageEnd:   end,
	})
	if err != nil {
		t.Fatalf("CreatePaycheck: %v", err)
	}
	return p
}

func TestCreatePaycheck_InitialTotals(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)

	p := createPaycheck(t, svc, "user-1", "2500", date(2026, 3, 1), date(2026, 3, 14))

	if !p.TotalBills.IsZero() {
		t.Errorf("total_bills = %s, want 0", p.TotalBills)
	}
	if !p.AllowanceAmount.IsZero() {
		t.Errorf("allowance_amount = %s, want 0", p.AllowanceAmount)
	}
	if !p.SavingsAmount.Equal(money("2500")) {
		t.Errorf("savings_amount = %s, want 2500", p.SavingsAmount)
	}
	if p.Month != 3 || p.Year != 2026 {
		t.Errorf("month/year = %d/%d, want 3/2026", p.Month, p.Year)
	}
}

func TestCreatePaycheck_Validation(t *testing.T) {
	svc := newPaycheckService(newMemStore())
	ctx := context.Background()

	var verr *domain.ErrValidation

	_, err := svc.CreatePaycheck(ctx, "user-1", &domain.CreatePaycheckRequest{
		Amount:        money("0"),
		Frequency:     domain.FrequencyWeekly,
		CoverageStart: date(2026, 3, 1),
		CoverageEnd:   date(2026, 3, 7),
	})
	if !errors.As(err, &verr) {
		t.Errorf("zero amount: expected validation error, got %v", err)
	}

	_, err = svc.CreatePaycheck(ctx, "user-1", &domain.CreatePaycheckRequest{
		Amount:        money("100"),
		Frequency:     "MONTHLY",
		CoverageStart: date(2026, 3, 1),
		CoverageEnd:   date(2026, 3, 7),
	})
	if !errors.As(err, &verr) {
		t.Errorf("bad frequency: expected validation error, got %v", err)
	}

	_, err = svc.CreatePaycheck(ctx, "user-1", &domain.CreatePaycheckRequest{
		Amount:        money("100"),
		Frequency:     domain.FrequencyWeekly,
		CoverageStart: date(2026, 3, 7),
		CoverageEnd:   date(2026, 3, 1),
	})
	if !errors.As(err, &verr) {
		t.Errorf("inverted coverage: expected validation error, got %v", err)
	}
}

func TestCreatePaycheck_OverlappingCoverage(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)

	createPaycheck(t, svc, "user-1", "2000", date(2026, 3, 1), date(2026, 3, 14))

	_, err := svc.CreatePaycheck(context.Background(), "user-1", &domain.CreatePaycheckRequest{
		Amount:        money("2000"),
		PaycheckDate:  date(2026, 3, 10),
		Frequency:     domain.FrequencyBiweekly,
		CoverageStart: date(2026, 3, 10),
		CoverageEnd:   date(2026, 3, 24),
	})
	var overlap *domain.ErrOverlappingCoverage
	if !errors.As(err, &overlap) {
		t.Fatalf("expected ErrOverlappingCoverage, got %v", err)
	}

	// A different user may cover the same period.
	if _, err := svc.CreatePaycheck(context.Background(), "user-2", &domain.CreatePaycheckRequest{
		Amount:        money("2000"),
		PaycheckDate:  date(2026, 3, 10),
		Frequency:     domain.FrequencyBiweekly,
		CoverageStart: date(2026, 3, 10),
		CoverageEnd:   date(2026, 3, 24),
	}); err != nil {
		t.Fatalf("other user's paycheck should not collide: %v", err)
	}
}

func TestGetPaycheck_OwnershipGuard(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)

	p := createPaycheck(t, svc, "user-1", "2000", date(2026, 3, 1), date(2026, 3, 14))

	_, err := svc.GetPaycheck(context.Background(), "user-2", p.ID)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGetLatestPaycheck_CachesResult(t *testing.T) {
	store := newMemStore()
	metrics := observability.NewMetrics()
	svc := service.NewPaycheckService(
		store, store, store,
		cache.New[*domain.Paycheck](time.Minute),
		metrics,
		zap.NewNop(),
	)

	p := createPaycheck(t, svc, "user-1", "2000", date(2026, 3, 1), date(2026, 3, 14))

	first, err := svc.GetLatestPaycheck(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetLatestPaycheck: %v", err)
	}
	if first.ID != p.ID {
		t.Errorf("latest = %s, want %s", first.ID, p.ID)
	}

	// Second call must come from the cache, surviving a store wipe.
	store.paychecks = map[string]*domain.Paycheck{}
	second, err := svc.GetLatestPaycheck(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("cached GetLatestPaycheck: %v", err)
	}
	if second.ID != p.ID {
		t.Errorf("cached latest = %s, want %s", second.ID, p.ID)
	}
}

func TestUpdatePaycheck_BudgetExceeded(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)

	p := createPaycheck(t, svc, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))

	over := money("1200")
	_, err := svc.UpdatePaycheck(context.Background(), "user-1", p.ID, &domain.UpdatePaycheckRequest{
		AllowanceAmount: &over,
	})
	var exceeded *domain.ErrBudgetExceeded
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestUpdatePaycheck_AssigningAllowanceCreatesTracker(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)

	p := createPaycheck(t, svc, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))

	assigned := money("300")
	updated, err := svc.UpdatePaycheck(context.Background(), "user-1", p.ID, &domain.UpdatePaycheckRequest{
		AllowanceAmount: &assigned,
	})
	if err != nil {
		t.Fatalf("UpdatePaycheck: %v", err)
	}
	if !updated.AllowanceAmount.Equal(money("300")) {
		t.Errorf("allowance_amount = %s, want 300", updated.AllowanceAmount)
	}
	if !updated.SavingsAmount.Equal(money("700")) {
		t.Errorf("savings_amount = %s, want 700", updated.SavingsAmount)
	}

	tracker, err := store.GetAllowanceTrackerByPaycheck(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("expected allowance tracker to exist: %v", err)
	}
	if !tracker.AssignedAmount.Equal(money("300")) ||
		!tracker.CurrentBalance.Equal(money("300")) ||
		!tracker.ClearedBalance.Equal(money("300")) {
		t.Errorf("tracker = assigned %s current %s cleared %s, want all 300",
			tracker.AssignedAmount, tracker.CurrentBalance, tracker.ClearedBalance)
	}
}

func TestUpdatePaycheck_AllowanceBelowSpent(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)
	ctx := context.Background()

	p := createPaycheck(t, svc, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))

	assigned := money("300")
	if _, err := svc.UpdatePaycheck(ctx, "user-1", p.ID, &domain.UpdatePaycheckRequest{AllowanceAmount: &assigned}); err != nil {
		t.Fatalf("assign allowance: %v", err)
	}

	allowanceSvc := service.NewAllowanceService(store, store, observability.NewMetrics(), zap.NewNop())
	tracker, err := store.GetAllowanceTrackerByPaycheck(ctx, p.ID)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	if _, err := allowanceSvc.AddTransaction(ctx, "user-1", tracker.ID, &domain.CreateTransactionRequest{
		Amount: money("250"), Type: domain.TransactionDebit, IsCleared: true,
	}); err != nil {
		t.Fatalf("spend: %v", err)
	}

	lower := money("200")
	_, err = svc.UpdatePaycheck(ctx, "user-1", p.ID, &domain.UpdatePaycheckRequest{AllowanceAmount: &lower})
	var belowSpent *domain.ErrAllowanceBelowSpent
	if !errors.As(err, &belowSpent) {
		t.Fatalf("expected ErrAllowanceBelowSpent, got %v", err)
	}
}

func TestMonthlyOverview(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)
	ctx := context.Background()

	p1 := createPaycheck(t, svc, "user-1", "2000", date(2026, 3, 1), date(2026, 3, 14))
	createPaycheck(t, svc, "user-1", "2000", date(2026, 3, 15), date(2026, 3, 28))
	// Another month, must be excluded.
	createPaycheck(t, svc, "user-1", "9999", date(2026, 4, 1), date(2026, 4, 14))

	assigned := money("400")
	if _, err := svc.UpdatePaycheck(ctx, "user-1", p1.ID, &domain.UpdatePaycheckRequest{AllowanceAmount: &assigned}); err != nil {
		t.Fatalf("assign allowance: %v", err)
	}

	ov, err := svc.MonthlyOverview(ctx, "user-1", 3, 2026)
	if err != nil {
		t.Fatalf("MonthlyOverview: %v", err)
	}
	if ov.PaycheckCount != 2 {
		t.Errorf("paycheck_count = %d, want 2", ov.PaycheckCount)
	}
	if !ov.TotalIncome.Equal(money("4000")) {
		t.Errorf("total_income = %s, want 4000", ov.TotalIncome)
	}
	if !ov.TotalAllowance.Equal(money("400")) {
		t.Errorf("total_allowance = %s, want 400", ov.TotalAllowance)
	}
	if !ov.AllowanceRemaining.Equal(money("400")) {
		t.Errorf("allowance_remaining = %s, want 400", ov.AllowanceRemaining)
	}
}

func TestDeletePaycheck_Cascades(t *testing.T) {
	store := newMemStore()
	svc := newPaycheckService(store)
	ctx := context.Background()

	p := createPaycheck(t, svc, "user-1", "1000", date(2026, 3, 1), date(2026, 3, 14))
	assigned := money("200")
	if _, err := svc.UpdatePaycheck(ctx, "user-1", p.ID, &domain.UpdatePaycheckRequest{AllowanceAmount: &assigned}); err != nil {
		t.Fatalf("assign allowance: %v", err)
	}

	if err := svc.DeletePaycheck(ctx, "user-1", p.ID); err != nil {
		t.Fatalf("DeletePaycheck: %v", err)
	}

	var notFound *domain.ErrNotFound
	if _, err := store.GetPaycheck(ctx, p.ID); !errors.As(err, &notFound) {
		t.Errorf("paycheck should be gone, got %v", err)
	}
	if _, err := store.GetAllowanceTrackerByPaycheck(ctx, p.ID); !errors.As(err, &notFound) {
		t.Errorf("allowance tracker should be gone, got %v", err)
	}
}
