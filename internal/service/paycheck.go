package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var paycheckTracer = otel.Tracer("service/paycheck")

// PaycheckService manages paychecks and keeps their derived totals
// (totalBills, allowanceAmount, savingsAmount) consistent.
type PaycheckService struct {
	store      port.PaycheckStore
	bills      port.BillStore
	allowances port.AllowanceStore
	cache      port.Cache[*domain.Paycheck]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewPaycheckService creates a new paycheck service.
func NewPaycheckService(
	store port.PaycheckStore,
	bills port.BillStore,
	allowances port.AllowanceStore,
	cache port.Cache[*domain.Paycheck],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PaycheckService {
	return &PaycheckService{
		store:      store,
		bills:      bills,
		allowances: allowances,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

func latestCacheKey(userID string) string { return "latest:" + userID }

func (s *PaycheckService) CreatePaycheck(ctx context.Context, userID string, req *domain.CreatePaycheckRequest) (*domain.Paycheck, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.CreatePaycheck")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if !req.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if req.Frequency != domain.FrequencyWeekly && req.Frequency != domain.FrequencyBiweekly {
		return nil, &domain.ErrValidation{Field: "frequency", Message: "must be WEEKLY or BIWEEKLY"}
	}
	if !req.CoverageEnd.After(req.CoverageStart) {
		return nil, &domain.ErrValidation{Field: "coverage_end", Message: "must be after coverage start"}
	}

	overlap, err := s.store.FindOverlappingPaycheck(ctx, userID, req.CoverageStart, req.CoverageEnd, "")
	if err != nil {
		return nil, err
	}
	if overlap != nil {
		return nil, &domain.ErrOverlappingCoverage{ExistingID: overlap.ID}
	}

	now := time.Now().UTC()
	p := &domain.Paycheck{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          req.Amount,
		PaycheckDate:    req.PaycheckDate,
		Frequency:       req.Frequency,
		CoverageStart:   req.CoverageStart,
		CoverageEnd:     req.CoverageEnd,
		Month:           int(req.PaycheckDate.Month()),
		Year:            req.PaycheckDate.Year(),
		TotalBills:      decimal.Zero,
		AllowanceAmount: decimal.Zero,
		SavingsAmount:   req.Amount,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreatePaycheck(ctx, p); err != nil {
		s.logger.Error("failed to create paycheck", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	s.cache.Delete(latestCacheKey(userID))

	s.logger.Info("paycheck created",
		zap.String("user_id", userID),
		zap.String("paycheck_id", p.ID),
		zap.String("amount", p.Amount.String()),
	)
	return p, nil
}

func (s *PaycheckService) ListPaychecks(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Paycheck, int, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.ListPaychecks")
	defer span.End()

	return s.store.ListPaychecks(ctx, userID, q)
}

// getOwnedPaycheck is the ownership guard for paycheck-scoped mutations:
// it resolves the paycheck and verifies the caller owns it before anything
// else happens.
func (s *PaycheckService) getOwnedPaycheck(ctx context.Context, userID, id string) (*domain.Paycheck, error) {
	p, err := s.store.GetPaycheck(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, &domain.ErrForbidden{Resource: "paycheck", ID: id}
	}
	return p, nil
}

func (s *PaycheckService) GetPaycheck(ctx context.Context, userID, id string) (*domain.Paycheck, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.GetPaycheck")
	defer span.End()

	return s.getOwnedPaycheck(ctx, userID, id)
}

func (s *PaycheckService) GetLatestPaycheck(ctx context.Context, userID string) (*domain.Paycheck, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.GetLatestPaycheck")
	defer span.End()

	if p, ok := s.cache.Get(latestCacheKey(userID)); ok {
		s.metrics.IncrCacheHit("latest_paycheck")
		return p, nil
	}
	s.metrics.IncrCacheMiss("latest_paycheck")

	p, err := s.store.GetLatestPaycheck(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(latestCacheKey(userID), p)
	return p, nil
}

// MonthlyOverview aggregates the user's paychecks for one calendar month
// and, concurrently, the live allowance balances behind them.
func (s *PaycheckService) MonthlyOverview(ctx context.Context, userID string, month, year int) (*domain.MonthlyOverview, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.MonthlyOverview")
	defer span.End()
	span.SetAttributes(attribute.Int("month", month), attribute.Int("year", year))

	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}

	paychecks, err := s.store.ListPaychecksByMonth(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	ov := &domain.MonthlyOverview{
		Month:          month,
		Year:           year,
		TotalIncome:    decimal.Zero,
		TotalBills:     decimal.Zero,
		TotalAllowance: decimal.Zero,
		TotalSavings:   decimal.Zero,
		PaycheckCount:  len(paychecks),
		Paychecks:      paychecks,
	}
	for _, p := range paychecks {
		ov.TotalIncome = ov.TotalIncome.Add(p.Amount)
		ov.TotalBills = ov.TotalBills.Add(p.TotalBills)
		ov.TotalAllowance = ov.TotalAllowance.Add(p.AllowanceAmount)
		ov.TotalSavings = ov.TotalSavings.Add(p.SavingsAmount)
	}

	// Allowance trackers are fetched concurrently; a paycheck without an
	// envelope simply contributes nothing.
	remaining := make([]decimal.Decimal, len(paychecks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range paychecks {
		i := i
		g.Go(func() error {
			t, err := s.allowances.GetAllowanceTrackerByPaycheck(gctx, paychecks[i].ID)
			if err != nil {
				var notFound *domain.ErrNotFound
				if errors.As(err, &notFound) {
					remaining[i] = decimal.Zero
					return nil
				}
				return err
			}
			remaining[i] = t.CurrentBalance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ov.AllowanceRemaining = decimal.Zero
	for _, r := range remaining {
		ov.AllowanceRemaining = ov.AllowanceRemaining.Add(r)
	}

	return ov, nil
}

func (s *PaycheckService) UpdatePaycheck(ctx context.Context, userID, id string, req *domain.UpdatePaycheckRequest) (*domain.Paycheck, error) {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.UpdatePaycheck")
	defer span.End()
	span.SetAttributes(attribute.String("paycheck.id", id))

	p, err := s.getOwnedPaycheck(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		p.Amount = *req.Amount
	}
	if req.PaycheckDate != nil {
		p.PaycheckDate = *req.PaycheckDate
		p.Month = int(req.PaycheckDate.Month())
		p.Year = req.PaycheckDate.Year()
	}
	if req.Frequency != nil {
		if *req.Frequency != domain.FrequencyWeekly && *req.Frequency != domain.FrequencyBiweekly {
			return nil, &domain.ErrValidation{Field: "frequency", Message: "must be WEEKLY or BIWEEKLY"}
		}
		p.Frequency = *req.Frequency
	}
	if req.CoverageStart != nil {
		p.CoverageStart = *req.CoverageStart
	}
	if req.CoverageEnd != nil {
		p.CoverageEnd = *req.CoverageEnd
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}

	if !p.CoverageEnd.After(p.CoverageStart) {
		return nil, &domain.ErrValidation{Field: "coverage_end", Message: "must be after coverage start"}
	}
	if req.CoverageStart != nil || req.CoverageEnd != nil {
		overlap, err := s.store.FindOverlappingPaycheck(ctx, userID, p.CoverageStart, p.CoverageEnd, p.ID)
		if err != nil {
			return nil, err
		}
		if overlap != nil {
			return nil, &domain.ErrOverlappingCoverage{ExistingID: overlap.ID}
		}
	}

	allowance := p.AllowanceAmount
	if req.AllowanceAmount != nil {
		allowance = *req.AllowanceAmount
		if allowance.IsNegative() {
			return nil, &domain.ErrValidation{Field: "allowance_amount", Message: "must not be negative"}
		}
	}
	if p.TotalBills.Add(allowance).GreaterThan(p.Amount) {
		return nil, &domain.ErrBudgetExceeded{PaycheckID: p.ID}
	}

	p.AllowanceAmount = allowance
	p.SavingsAmount = p.Amount.Sub(p.TotalBills).Sub(allowance)
	p.UpdatedAt = time.Now().UTC()

	// The envelope change goes first: its store op writes the tracker and
	// the paycheck totals in one atomic unit. The remaining paycheck fields
	// follow with the same totals.
	if req.AllowanceAmount != nil {
		if err := s.applyAllowanceAssignment(ctx, userID, p, allowance); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdatePaycheck(ctx, p); err != nil {
		s.logger.Error("failed to update paycheck", zap.String("paycheck_id", id), zap.Error(err))
		return nil, err
	}
	s.cache.Delete(latestCacheKey(userID))

	s.logger.Info("paycheck updated", zap.String("paycheck_id", id))
	return p, nil
}

// applyAllowanceAssignment upserts the paycheck's allowance tracker with a
// new assigned amount, using the full-recompute path when the tracker
// already has history.
func (s *PaycheckService) applyAllowanceAssignment(ctx context.Context, userID string, p *domain.Paycheck, assigned decimal.Decimal) error {
	totals := domain.PaycheckTotals{
		PaycheckID:      p.ID,
		TotalBills:      p.TotalBills,
		AllowanceAmount: assigned,
		SavingsAmount:   p.SavingsAmount,
	}

	existing, err := s.allowances.GetAllowanceTrackerByPaycheck(ctx, p.ID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return err
		}
		now := time.Now().UTC()
		t := &domain.AllowanceTracker{
			ID:             uuid.New().String(),
			UserID:         userID,
			PaycheckID:     p.ID,
			AssignedAmount: assigned,
			CurrentBalance: assigned,
			ClearedBalance: assigned,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.allowances.UpsertAllowanceTracker(ctx, t, totals)
	}

	txns, err := s.allowances.ListAllowanceTransactions(ctx, existing.ID)
	if err != nil {
		return err
	}
	fields := allowanceTxnFields(txns)
	if assigned.LessThan(totalSpent(fields)) {
		return &domain.ErrAllowanceBelowSpent{AllowanceID: existing.ID}
	}
	bal := recomputeBalances(assigned, fields)
	if err := checkBalances(bal, "allowance"); err != nil {
		s.metrics.IncrBalanceRejection("allowance")
		return err
	}

	existing.AssignedAmount = assigned
	existing.CurrentBalance = bal.Current
	existing.ClearedBalance = bal.Cleared
	existing.UpdatedAt = time.Now().UTC()
	if err := s.allowances.UpdateAllowanceAssignment(ctx, existing, totals); err != nil {
		countConflict(s.metrics, "allowance", err)
		return err
	}
	return nil
}

func (s *PaycheckService) DeletePaycheck(ctx context.Context, userID, id string) error {
	ctx, span := paycheckTracer.Start(ctx, "PaycheckService.DeletePaycheck")
	defer span.End()

	if _, err := s.getOwnedPaycheck(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeletePaycheck(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(latestCacheKey(userID))

	s.logger.Info("paycheck deleted", zap.String("paycheck_id", id))
	return nil
}
