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

var cardTracer = otel.Tracer("service/creditcard")

// CreditCardService manages credit card trackers and their transactions.
type CreditCardService struct {
	store   port.CreditCardStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCreditCardService creates a new credit card service.
func NewCreditCardService(store port.CreditCardStore, metrics *observability.Metrics, logger *zap.Logger) *CreditCardService {
	return &CreditCardService{store: store, metrics: metrics, logger: logger}
}

func (s *CreditCardService) getOwnedTracker(ctx context.Context, userID, id string) (*domain.CreditCardTracker, error) {
	t, err := s.store.GetCreditCardTracker(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, &domain.ErrForbidden{Resource: "credit card tracker", ID: id}
	}
	return t, nil
}

func (s *CreditCardService) CreateTracker(ctx context.Context, userID string, req *domain.CreateCreditCardTrackerRequest) (*domain.CreditCardTracker, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.CreateTracker")
	defer span.End()

	if req.CardName == "" {
		return nil, &domain.ErrValidation{Field: "card_name", Message: "must not be empty"}
	}
	if req.Limit != nil && !req.Limit.IsPositive() {
		return nil, &domain.ErrValidation{Field: "limit", Message: "must be positive when set"}
	}

	now := time.Now().UTC()
	t := &domain.CreditCardTracker{
		ID:             uuid.New().String(),
		UserID:         userID,
		CardName:       req.CardName,
		Limit:          req.Limit,
		CurrentBalance: decimal.Zero,
		ClearedBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateCreditCardTracker(ctx, t); err != nil {
		s.logger.Error("failed to create credit card tracker", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("credit card tracker created", zap.String("card_id", t.ID), zap.String("card", t.CardName))
	return t, nil
}

// ListTrackers returns the user's cards along with the summed balances
// across all of them.
func (s *CreditCardService) ListTrackers(ctx context.Context, userID string, q domain.ListQuery) (*domain.CreditCardList, int, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.ListTrackers")
	defer span.End()

	cards, total, err := s.store.ListCreditCardTrackers(ctx, userID, q)
	if err != nil {
		return nil, 0, err
	}

	list := &domain.CreditCardList{
		Results:             cards,
		TotalBalance:        decimal.Zero,
		TotalClearedBalance: decimal.Zero,
	}
	for _, c := range cards {
		list.TotalBalance = list.TotalBalance.Add(c.CurrentBalance)
		list.TotalClearedBalance = list.TotalClearedBalance.Add(c.ClearedBalance)
	}
	return list, total, nil
}

func (s *CreditCardService) GetTracker(ctx context.Context, userID, id string) (*domain.CreditCardTracker, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.GetTracker")
	defer span.End()

	return s.getOwnedTracker(ctx, userID, id)
}

func (s *CreditCardService) UpdateTracker(ctx context.Context, userID, id string, req *domain.UpdateCreditCardTrackerRequest) (*domain.CreditCardTracker, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.UpdateTracker")
	defer span.End()

	t, err := s.getOwnedTracker(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.CardName != nil {
		if *req.CardName == "" {
			return nil, &domain.ErrValidation{Field: "card_name", Message: "must not be empty"}
		}
		t.CardName = *req.CardName
	}
	if req.Limit != nil {
		if !req.Limit.IsPositive() {
			return nil, &domain.ErrValidation{Field: "limit", Message: "must be positive when set"}
		}
		t.Limit = req.Limit
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCreditCardTracker(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CreditCardService) DeleteTracker(ctx context.Context, userID, id string) error {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.DeleteTracker")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteCreditCardTracker(ctx, id); err != nil {
		return err
	}

	s.logger.Info("credit card tracker deleted", zap.String("card_id", id))
	return nil
}

func (s *CreditCardService) ListTransactions(ctx context.Context, userID, cardID string) ([]domain.CreditCardTransaction, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.ListTransactions")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, cardID); err != nil {
		return nil, err
	}
	return s.store.ListCreditCardTransactions(ctx, cardID)
}

func (s *CreditCardService) GetTransaction(ctx context.Context, userID, cardID, txnID string) (*domain.CreditCardTransaction, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.GetTransaction")
	defer span.End()

	if _, err := s.getOwnedTracker(ctx, userID, cardID); err != nil {
		return nil, err
	}
	return s.store.GetCreditCardTransaction(ctx, cardID, txnID)
}

// ListAllTransactions returns the user's card transactions across all of
// their cards.
func (s *CreditCardService) ListAllTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.CreditCardTransaction, int, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.ListAllTransactions")
	defer span.End()

	return s.store.ListAllCreditCardTransactions(ctx, userID, q)
}

func (s *CreditCardService) AddTransaction(ctx context.Context, userID, cardID string, req *domain.CreateTransactionRequest) (*domain.CreditCardTransaction, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.AddTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("credit_card_add_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	fields := txnFields{Type: req.Type, Amount: req.Amount, IsCleared: req.IsCleared}
	if err := validateTxnInput(fields); err != nil {
		return nil, err
	}

	bal := applyCreate(domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance}, fields)
	if err := checkBalances(bal, "credit card"); err != nil {
		s.metrics.IncrBalanceRejection("credit_card")
		return nil, err
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}
	txn := &domain.CreditCardTransaction{
		ID:                  uuid.New().String(),
		CreditCardTrackerID: cardID,
		Type:                req.Type,
		Amount:              req.Amount,
		Description:         req.Description,
		Date:                date,
		IsCleared:           req.IsCleared,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.store.InsertCreditCardTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "credit_card", err)
		s.logger.Error("failed to insert credit card transaction", zap.String("card_id", cardID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("credit card transaction added",
		zap.String("card_id", cardID),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
	)
	return txn, nil
}

func (s *CreditCardService) UpdateTransaction(ctx context.Context, userID, cardID, txnID string, req *domain.UpdateTransactionRequest) (*domain.CreditCardTransaction, error) {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.UpdateTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("credit_card_update_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	txn, err := s.store.GetCreditCardTransaction(ctx, cardID, txnID)
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
	if err := checkBalances(bal, "credit card"); err != nil {
		s.metrics.IncrBalanceRejection("credit_card")
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
	if err := s.store.UpdateCreditCardTransaction(ctx, txn, bal, t.Version); err != nil {
		countConflict(s.metrics, "credit_card", err)
		s.logger.Error("failed to update credit card transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("credit card transaction updated", zap.String("transaction_id", txnID))
	return txn, nil
}

func (s *CreditCardService) DeleteTransaction(ctx context.Context, userID, cardID, txnID string) error {
	ctx, span := cardTracer.Start(ctx, "CreditCardService.DeleteTransaction")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("credit_card_delete_transaction", time.Since(start))
	}()

	t, err := s.getOwnedTracker(ctx, userID, cardID)
	if err != nil {
		return err
	}
	txn, err := s.store.GetCreditCardTransaction(ctx, cardID, txnID)
	if err != nil {
		return err
	}

	bal := applyDelete(
		domain.Balances{Current: t.CurrentBalance, Cleared: t.ClearedBalance},
		txnFields{Type: txn.Type, Amount: txn.Amount, IsCleared: txn.IsCleared},
	)
	if err := checkBalances(bal, "credit card"); err != nil {
		s.metrics.IncrBalanceRejection("credit_card")
		return err
	}

	if err := s.store.DeleteCreditCardTransaction(ctx, cardID, txnID, bal, t.Version); err != nil {
		countConflict(s.metrics, "credit_card", err)
		s.logger.Error("failed to delete credit card transaction", zap.String("transaction_id", txnID), zap.Error(err))
		return err
	}

	s.logger.Info("credit card transaction deleted", zap.String("transaction_id", txnID))
	return nil
}
