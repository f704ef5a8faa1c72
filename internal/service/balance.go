// Package service implements the business logic of the budget tracker:
// paycheck/bill aggregates, the three balance trackers (allowance, savings,
// credit card), authentication and billing.
//
// This file is the balance reconciliation engine: pure functions that fold
// a transaction mutation into a tracker's running balance pair. The cleared
// balance moves on every transaction (projected); the current balance moves
// only for transactions marked cleared (settled). Stores apply the results
// atomically together with the transaction row write.
package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
)

// txnFields is the tracker-agnostic view of a transaction; the allowance,
// savings and credit-card transactions all reduce to it.
type txnFields struct {
	Type      domain.TransactionType
	Amount    decimal.Decimal
	IsCleared bool
}

// signedAmount is positive for CREDIT and negative for DEBIT.
func signedAmount(t domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == domain.TransactionCredit {
		return amount
	}
	return amount.Neg()
}

// applyCreate returns the balances after adding txn to the tracker.
func applyCreate(b domain.Balances, txn txnFields) domain.Balances {
	delta := signedAmount(txn.Type, txn.Amount)
	b.Cleared = b.Cleared.Add(delta)
	if txn.IsCleared {
		b.Current = b.Current.Add(delta)
	}
	return b
}

// applyDelete returns the balances after removing txn from the tracker.
// It is the exact inverse of applyCreate.
func applyDelete(b domain.Balances, txn txnFields) domain.Balances {
	delta := signedAmount(txn.Type, txn.Amount)
	b.Cleared = b.Cleared.Sub(delta)
	if txn.IsCleared {
		b.Current = b.Current.Sub(delta)
	}
	return b
}

// applyUpdate rolls back the old transaction's effect and applies the new
// field values. Callers resolve omitted update fields to the existing
// values before calling.
func applyUpdate(b domain.Balances, old, updated txnFields) domain.Balances {
	return applyCreate(applyDelete(b, old), updated)
}

// checkBalances rejects a computed balance pair in which either side went
// negative. Nothing may be written when it errors.
func checkBalances(b domain.Balances, tracker string) error {
	if b.Cleared.IsNegative() {
		return &domain.ErrInsufficientBalance{Tracker: tracker, Balance: "cleared"}
	}
	if b.Current.IsNegative() {
		return &domain.ErrInsufficientBalance{Tracker: tracker, Balance: "current"}
	}
	return nil
}

// recomputeBalances is the authoritative full-recompute path used when an
// allowance tracker's assigned amount changes: it re-derives both balances
// from the complete transaction history instead of applying a delta, so it
// self-heals any drift. Distinct from the O(1) incremental path above.
func recomputeBalances(assigned decimal.Decimal, txns []txnFields) domain.Balances {
	b := domain.Balances{Current: assigned, Cleared: assigned}
	for _, t := range txns {
		delta := signedAmount(t.Type, t.Amount)
		b.Cleared = b.Cleared.Add(delta)
		if t.IsCleared {
			b.Current = b.Current.Add(delta)
		}
	}
	return b
}

// totalSpent is the net consumption of a tracker regardless of clearance:
// debits add, credits (refunds) subtract.
func totalSpent(txns []txnFields) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txns {
		if t.Type == domain.TransactionDebit {
			sum = sum.Add(t.Amount)
		} else {
			sum = sum.Sub(t.Amount)
		}
	}
	return sum
}

// allowanceTxnFields projects allowance transactions onto the engine's view.
func allowanceTxnFields(txns []domain.AllowanceTransaction) []txnFields {
	out := make([]txnFields, len(txns))
	for i, t := range txns {
		out[i] = txnFields{Type: t.Type, Amount: t.Amount, IsCleared: t.IsCleared}
	}
	return out
}

// validateTxnInput checks the common transaction payload rules.
func validateTxnInput(txn txnFields) error {
	if txn.Type != domain.TransactionDebit && txn.Type != domain.TransactionCredit {
		return &domain.ErrValidation{Field: "type", Message: "must be DEBIT or CREDIT"}
	}
	if !txn.Amount.IsPositive() {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	return nil
}

// countConflict records a stale-version refusal on a versioned tracker write.
func countConflict(metrics *observability.Metrics, tracker string, err error) {
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		metrics.IncrWriteConflict(tracker)
	}
}
