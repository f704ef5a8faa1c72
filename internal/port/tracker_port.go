package port

import (
	"context"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

// Tracker transaction writes pair the transaction row with the tracker's
// new balances in one atomic unit. The version argument is the tracker
// version the balances were computed from; stores must refuse the write
// (domain.ErrConflict) when the tracker has moved on since.

// AllowanceStore handles allowance tracker and transaction data operations.
type AllowanceStore interface {
	GetAllowanceTracker(ctx context.Context, id string) (*domain.AllowanceTracker, error)
	GetAllowanceTrackerByPaycheck(ctx context.Context, paycheckID string) (*domain.AllowanceTracker, error)
	GetLatestAllowanceTracker(ctx context.Context, userID string) (*domain.AllowanceTracker, error)
	ListAllowanceTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.AllowanceTracker, int, error)
	// UpsertAllowanceTracker creates or replaces the paycheck's envelope and
	// writes the paycheck totals in the same unit.
	UpsertAllowanceTracker(ctx context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error
	// UpdateAllowanceAssignment persists the full-recompute result: new
	// assigned amount, both recomputed balances, and the paycheck totals.
	UpdateAllowanceAssignment(ctx context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error

	ListAllowanceTransactions(ctx context.Context, allowanceID string) ([]domain.AllowanceTransaction, error)
	GetAllowanceTransaction(ctx context.Context, allowanceID, txnID string) (*domain.AllowanceTransaction, error)
	InsertAllowanceTransaction(ctx context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error
	UpdateAllowanceTransaction(ctx context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error
	DeleteAllowanceTransaction(ctx context.Context, allowanceID, txnID string, bal domain.Balances, version int64) error
}

// SavingsStore handles savings tracker and transaction data operations.
type SavingsStore interface {
	CreateSavingsTracker(ctx context.Context, t *domain.SavingsTracker) error
	ListSavingsTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTracker, int, error)
	GetSavingsTracker(ctx context.Context, id string) (*domain.SavingsTracker, error)
	UpdateSavingsTracker(ctx context.Context, t *domain.SavingsTracker) error
	DeleteSavingsTracker(ctx context.Context, id string) error

	ListSavingsTransactions(ctx context.Context, savingsID string) ([]domain.SavingsTransaction, error)
	ListAllSavingsTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTransaction, int, error)
	GetSavingsTransaction(ctx context.Context, savingsID, txnID string) (*domain.SavingsTransaction, error)
	InsertSavingsTransaction(ctx context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error
	UpdateSavingsTransaction(ctx context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error
	DeleteSavingsTransaction(ctx context.Context, savingsID, txnID string, bal domain.Balances, version int64) error
}

// CreditCardStore handles credit card tracker and transaction data
// operations.
type CreditCardStore interface {
	CreateCreditCardTracker(ctx context.Context, t *domain.CreditCardTracker) error
	ListCreditCardTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.CreditCardTracker, int, error)
	GetCreditCardTracker(ctx context.Context, id string) (*domain.CreditCardTracker, error)
	UpdateCreditCardTracker(ctx context.Context, t *domain.CreditCardTracker) error
	DeleteCreditCardTracker(ctx context.Context, id string) error

	ListCreditCardTransactions(ctx context.Context, cardID string) ([]domain.CreditCardTransaction, error)
	ListAllCreditCardTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.CreditCardTransaction, int, error)
	GetCreditCardTransaction(ctx context.Context, cardID, txnID string) (*domain.CreditCardTransaction, error)
	InsertCreditCardTransaction(ctx context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error
	UpdateCreditCardTransaction(ctx context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error
	DeleteCreditCardTransaction(ctx context.Context, cardID, txnID string, bal domain.Balances, version int64) error
}
