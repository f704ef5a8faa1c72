package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var savingsTracer = otel.Tracer("service/savings")

// SavingsService manages savings trackers and their deposit/withdrawal
// transactions.
type SavingsService struct {
	store   port.SavingsStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSavingsService creates a new savings service.
func NewSavingsService(store port.SavingsStore, metrics *observability.Metrics, logger *zap.Logger) *SavingsService {
	return &SavingsService{store: store, metrics: metrics, logger: logger}
}

func (s *SavingsService) getOwnedTracker(ctx context.Context, userID, id string) (*domain.SavingsTracker, error) {
	t, err := s.store.GetSavingsTracker(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, &domain.ErrForbidden{Resource: "savings tracker", ID: id}
	}
	return t, nil
}

func (s *SavingsService) CreateTracker(ctx context.Context, userID string, req *domain.CreateSavingsTrackerRequest) (*domain.SavingsTracker, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.CreateTracker")
	defer span.End()

	if req.AccountName == "" {
		return nil, &domain.ErrValidation{Field: "account_name", Message: "must not be empty"}
	}
	starting := decimal.Zero
	if req.StartingAmount != nil {
		if req.StartingAmount.IsNegative() {
			return nil, &domain.ErrValidation{Field: "starting_amount", Message: "must not be negative"}
		}
		starting = *req.StartingAmount
	}

	now := time.Now().UTC()
	t := &domain.SavingsTracker{
		ID:             uuid.New().String(),
		UserID:         userID,
		AccountName:    req.AccountName,
		CurrentBalance: starting,
		ClearedBalance: starting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateSavingsTracker(ctx, t); err != nil {
		s.logger.Error("failed to create savings tracker", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("savings tracker created", zap.String("savings_id", t.ID), zap.String("account", t.AccountName))
	return t, nil
}

func (s *SavingsService) ListTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTracker, int, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.ListTrackers")
	defer span.End()

	return s.store.ListSavingsTrackers(ctx, userID, q)
}

func (s *SavingsService) GetTracker(ctx context.Context, userID, id string) (*domain.SavingsTracker, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.GetTracker")
	defer span.End()

	return s.getOwnedTracker(ctx, userID, id)
}

func (s *SavingsService) UpdateTracker(ctx context.Context, userID, id string, req *domain.UpdateSavingsTrackerRequest) (*domain.SavingsTracker, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.UpdateTracker")
	defer span.End()

	t, err := s.getOwnedTracker(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.AccountName != nil {
		if *req.AccountName == "" {
			return nil, &domain.ErrValidation{Field: "account_name", Message: "must not be empty"}
		}
		t.AccountName = *req.AccountName
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSavingsTracker(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SavingsService) DeleteTracker(ctx context.Context, userID, id string) error {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.DeleteTracker")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteSavingsTracker(ctx, id); err != nil {
		return err
	}

	s.logger.Info("savings tracker deleted", zap.String("savings_id", id))
	return nil
}

func (s *SavingsService) ListTransactions(ctx context.Context, userID, savingsID string) ([]domain.SavingsTransaction, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.ListTransactions")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, savingsID); err != nil {
		return nil, err
	}
	return s.store.ListSavingsTransactions(ctx, savingsID)
}

func (s *SavingsService) GetTransaction(ctx context.Context, userID, savingsID, txnID string) (*domain.SavingsTransaction, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.GetTransaction")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, savingsID); err != nil {
		return nil, err
	}
	return s.store.GetSavingsTransaction(ctx, savingsID, txnID)
}

// ListAllTransactions returns the user's savings transactions across all
// of their trackers.
func (s *SavingsService) ListAllTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTransaction, int, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.ListAllTransactions")
	defer span.End()

	return s.store.ListAllSavingsTransactions(ctx, userID, q)
}

func (s *SavingsService) AddTransaction(ctx context.Context, userID, savingsID string, req *domain.CreateTransactionRequest) (*domain.SavingsTransaction, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.AddTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("savings.id", savingsID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("savings_add_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, savingsID)
	if err != nil {
		return nil, err
	}

	fields := txnFields{Type: req.Type, Amount: req.Amount, IsCleared: req.IsCleared}
	if err := validateTxnInput(fields); err != nil {
		return nil, err
	}

	bal := applyCreate(domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance}, fields)
	if err := checkBalances(bal, "savings"); err != nil {
		s.metrics.IncrBalanceRejection("savings")
		return nil, err
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}
	txn := &domain.SavingsTransaction{
		ID:          uuid.New().String(),
		SavingsID:   savingsID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		IsCleared:   req.IsCleared,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertSavingsTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "savings", err)
		s.logger.Error("failed to insert savings transaction", zap.String("savings_id", savingsID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("savings transaction added",
		zap.String("savings_id", savingsID),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
	)
	return txn, nil
}

func (s *SavingsService) UpdateTransaction(ctx context.Context, userID, savingsID, txnID string, req *domain.UpdateTransactionRequest) (*domain.SavingsTransaction, error) {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.UpdateTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("savings_update_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, savingsID)
	if err != nil {
		return nil, err
	}
	txn, err := s.store.GetSavingsTransaction(ctx, savingsID, txnID)
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
	if err := checkBalances(bal, "savings"); err != nil {
		s.metrics.IncrBalanceRejection("savings")
		return nil, err
	}

	txn.Amount = updated.Amount
	txn.Type = updated.Type
	txn.IsCleared = updated.IsCleared
	if req.Description != nil {
		txn.Description = *req.Description
	}
	if req.Date != nil {
		txn.Date = *req.Date
	}
	if err := s.store.UpdateSavingsTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "savings", err)
		s.logger.Error("failed to update savings transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("savings transaction updated", zap.String("transaction_id", txnID))
	return txn, nil
}

func (s *SavingsService) DeleteTransaction(ctx context.Context, userID, savingsID, txnID string) error {
	ctx, span := savingsTracer.Start(ctx, "SavingsService.DeleteTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("savings_delete_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, savingsID)
	if err != nil {
		return err
	}
	txn, err := s.store.GetSavingsTransaction(ctx, savingsID, txnID)
	if err != nil {
		return err
	}

	bal := applyDelete(
		domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance},
		txnFields{Type: txn.Type, Amount: txn.Amount, IsCleared: txn.IsCleared},
	)
	if err := checkBalances(bal, "savings"); err != nil {
		s.metrics.IncrBalanceRejection("savings")
		return err
	}

	if err := s.store.DeleteSavingsTransaction(ctx, savingsID, txnID, bal, t.Version); err != nil {
		countConflict(s.metrics, "savings", err)
		s.logger.Error("failed to delete savings transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return err
	}

	s.logger.Info("savings transaction deleted", zap.String("transaction_id", txnID))
	return nil
}
