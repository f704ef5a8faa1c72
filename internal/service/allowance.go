package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var allowanceTracer = otel.Tracer("service/allowance")

// AllowanceService manages allowance envelopes and their transactions.
// Transaction mutations use the incremental balance path; assignment
// changes use the full recompute path.
type AllowanceService struct {
	store     port.AllowanceStore
	paychecks port.PaycheckStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewAllowanceService creates a new allowance service.
func NewAllowanceService(store port.AllowanceStore, paychecks port.PaycheckStore, metrics *observability.Metrics, logger *zap.Logger) *AllowanceService {
	return &AllowanceService{store: store, paychecks: paychecks, metrics: metrics, logger: logger}
}

func (s *AllowanceService) getOwnedTracker(ctx context.Context, userID, id string) (*domain.AllowanceTracker, error) {
	t, err := s.store.GetAllowanceTracker(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, &domain.ErrForbidden{Resource: "allowance tracker", ID: id}
	}
	return t, nil
}

func (s *AllowanceService) GetTracker(ctx context.Context, userID, id string) (*domain.AllowanceTracker, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.GetTracker")
	defer span.End()

	return s.getOwnedTracker(ctx, userID, id)
}

func (s *AllowanceService) GetLatestTracker(ctx context.Context, userID string) (*domain.AllowanceTracker, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.GetLatestTracker")
	defer span.End()

	return s.store.GetLatestAllowanceTracker(ctx, userID)
}

func (s *AllowanceService) ListTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.AllowanceTracker, int, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.ListTrackers")
	defer span.End()

	return s.store.ListAllowanceTrackers(ctx, userID, q)
}

// UpdateTracker changes the envelope's assigned amount. Both balances are
// re-derived from the full transaction history rather than shifted by the
// difference, and the owning paycheck's totals move with them.
func (s *AllowanceService) UpdateTracker(ctx context.Context, userID, id string, req *domain.UpdateAllowanceTrackerRequest) (*domain.AllowanceTracker, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.UpdateTracker")
	defer span.End()
	span.SetAttributes(attribute.String("allowance.id", id))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("allowance_assignment", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.AssignedAmount == nil {
		return nil, &domain.ErrValidation{Field: "assigned_amount", Message: "is required"}
	}
	assigned := *req.AssignedAmount
	if assigned.IsNegative() {
		return nil, &domain.ErrValidation{Field: "assigned_amount", Message: "must not be negative"}
	}

	p, err := s.paychecks.GetPaycheck(ctx, t.PaycheckID)
	if err != nil {
		return nil, err
	}
	if p.TotalBills.Add(assigned).GreaterThan(p.Amount) {
		return nil, &domain.ErrBudgetExceeded{PaycheckID: p.ID}
	}

	txns, err := s.store.ListAllowanceTransactions(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	fields := allowanceTxnFields(txns)
	if assigned.LessThan(totalSpent(fields)) {
		return nil, &domain.ErrAllowanceBelowSpent{AllowanceID: t.ID}
	}
	bal := recomputeBalances(assigned, fields)
	if err := checkBalances(bal, "allowance"); err != nil {
		s.metrics.IncrBalanceRejection("allowance")
		return nil, err
	}

	t.AssignedAmount = assigned
	t.CurrentBalance = bal.Current
	t.ClearedBalance = bal.Cleared
	t.UpdatedAt = time.Now().UTC()

	totals := domain.PaycheckTotals{
		PaycheckID:      p.ID,
		TotalBills:      p.TotalBills,
		AllowanceAmount: assigned,
		SavingsAmount:   p.Amount.Sub(p.TotalBills).Sub(assigned),
	}
	if err := s.store.UpdateAllowanceAssignment(ctx, t, totals); err != nil {
		countConflict(s.metrics, "allowance", err)
		s.logger.Error("failed to update allowance assignment", zap.String("allowance_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("allowance assignment updated",
		zap.String("allowance_id", id),
		zap.String("assigned", assigned.String()),
	)
	return t, nil
}

func (s *AllowanceService) ListTransactions(ctx context.Context, userID, allowanceID string) ([]domain.AllowanceTransaction, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.ListTransactions")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, allowanceID); err != nil {
		return nil, err
	}
	return s.store.ListAllowanceTransactions(ctx, allowanceID)
}

func (s *AllowanceService) GetTransaction(ctx context.Context, userID, allowanceID, txnID string) (*domain.AllowanceTransaction, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.GetTransaction")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, allowanceID); err != nil {
		return nil, err
	}
	return s.store.GetAllowanceTransaction(ctx, allowanceID, txnID)
}

func (s *AllowanceService) AddTransaction(ctx context.Context, userID, allowanceID string, req *domain.CreateTransactionRequest) (*domain.AllowanceTransaction, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.AddTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("allowance.id", allowanceID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("allowance_add_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, allowanceID)
	if err != nil {
		return nil, err
	}

	fields := txnFields{Type: req.Type, Amount: req.Amount, IsCleared: req.IsCleared}
	if err := validateTxnInput(fields); err != nil {
		return nil, err
	}

	bal := applyCreate(domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance}, fields)
	if err := checkBalances(bal, "allowance"); err != nil {
		s.metrics.IncrBalanceRejection("allowance")
		return nil, err
	}

	txn := &domain.AllowanceTransaction{
		ID:          uuid.New().String(),
		AllowanceID: allowanceID,
		Amount:      req.Amount,
		Type:        req.Type,
		IsCleared:   req.IsCleared,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertAllowanceTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "allowance", err)
		s.logger.Error("failed to insert allowance transaction", zap.String("allowance_id", allowanceID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("allowance transaction added",
		zap.String("allowance_id", allowanceID),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
	)
	return txn, nil
}

func (s *AllowanceService) UpdateTransaction(ctx context.Context, userID, allowanceID, txnID string, req *domain.UpdateTransactionRequest) (*domain.AllowanceTransaction, error) {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.UpdateTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("allowance_update_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, allowanceID)
	if err != nil {
		return nil, err
	}
	txn, err := s.store.GetAllowanceTransaction(ctx, allowanceID, txnID)
	if err != nil {
		return nil, err
	}

	old := txnFields{Type: txn.Type, Amount: txn.Amount, IsCleared: txn.IsCleared}
	updated := old
	if req.Amount != nil {
		updated.Amount = *req.Amount
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.IsCleared != nil {
		updated.IsCleared = *req.IsCleared
	}
	if err := validateTxnInput(updated); err != nil {
		return nil, err
	}

	bal := applyUpdate(domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance}, old, updated)
	if err := checkBalances(bal, "allowance"); err != nil {
		s.metrics.IncrBalanceRejection("allowance")
		return nil, err
	}

	txn.Amount = updated.Amount
	txn.Type = updated.Type
	txn.IsCleared = updated.IsCleared
	if err := s.store.UpdateAllowanceTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "allowance", err)
		s.logger.Error("failed to update allowance transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("allowance transaction updated", zap.String("transaction_id", txnID))
	return txn, nil
}

func (s *AllowanceService) DeleteTransaction(ctx context.Context, userID, allowanceID, txnID string) error {
	ctx, span := allowanceTracer.Start(ctx, "AllowanceService.DeleteTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("allowance_delete_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, allowanceID)
	if err != nil {
		return err
	}
	txn, err := s.store.GetAllowanceTransaction(ctx, allowanceID, txnID)
	if err != nil {
		return err
	}

	bal := applyDelete(
		domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance},
		txnFields{Type: txn.Type, Amount: txn.Amount, IsCleared: txn.IsCleared},
	)
	if err := checkBalances(bal, "allowance"); err != nil {
		s.metrics.IncrBalanceRejection("allowance")
		return err
	}

	if err := s.store.DeleteAllowanceTransaction(ctx, allowanceID, txnID, bal, t.Version); err != nil {
		countConflict(s.metrics, "allowance", err)
		s.logger.Error("failed to delete allowance transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return err
	}

	s.logger.Info("allowance transaction deleted", zap.String("transaction_id", txnID))
	return nil
}
