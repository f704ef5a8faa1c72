package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func balances(current, cleared string) domain.Balances {
	return domain.Balances{Current: dec(current), Cleared: dec(cleared)}
}

func assertBalances(t *testing.T, got domain.Balances, current, cleared string) {
	t.Helper()
	if !got.Current.Equal(dec(current)) {
		t.Errorf("current balance = %s, want %s", got.Current, current)
	}
	if !got.Cleared.Equal(dec(cleared)) {
		t.Errorf("cleared balance = %s, want %s", got.Cleared, cleared)
	}
}

func TestApplyCreate_UnclearedDebitMovesOnlyCleared(t *testing.T) {
	b := applyCreate(balances("300", "300"), txnFields{
		Type:   domain.TransactionDebit,
		Amount: dec("50"),
	})
	assertBalances(t, b, "300", "250")
}

func TestApplyCreate_ClearedDebitMovesBoth(t *testing.T) {
	b := applyCreate(balances("300", "300"), txnFields{
		Type:      domain.TransactionDebit,
		Amount:    dec("50"),
		IsCleared: true,
	})
	assertBalances(t, b, "250", "250")
}

func TestApplyCreate_CreditAddsBack(t *testing.T) {
	b := applyCreate(balances("250", "200"), txnFields{
		Type:      domain.TransactionCredit,
		Amount:    dec("25.50"),
		IsCleared: true,
	})
	assertBalances(t, b, "275.50", "225.50")
}

func TestApplyDelete_InvertsCreate(t *testing.T) {
	start := balances("300", "300")
	txns := []txnFields{
		{Type: domain.TransactionDebit, Amount: dec("40"), IsCleared: true},
		{Type: domain.TransactionDebit, Amount: dec("15.75")},
		{Type: domain.TransactionCredit, Amount: dec("10"), IsCleared: true},
	}

	b := start
	for _, txn := range txns {
		b = applyCreate(b, txn)
	}
	for i := len(txns) - 1; i >= 0; i-- {
		b = applyDelete(b, txns[i])
	}
	assertBalances(t, b, "300", "300")
}

func TestApplyUpdate_ClearingFlipMovesOnlyCurrent(t *testing.T) {
	// A pending 50 debit settles. Cleared already reflects it.
	old := txnFields{Type: domain.TransactionDebit, Amount: dec("50")}
	updated := old
	updated.IsCleared = true

	b := applyUpdate(balances("300", "250"), old, updated)
	assertBalances(t, b, "250", "250")
}

func TestApplyUpdate_AmountChange(t *testing.T) {
	old := txnFields{Type: domain.TransactionDebit, Amount: dec("50"), IsCleared: true}
	updated := txnFields{Type: domain.TransactionDebit, Amount: dec("80"), IsCleared: true}

	b := applyUpdate(balances("250", "250"), old, updated)
	assertBalances(t, b, "220", "220")
}

func TestCheckBalances(t *testing.T) {
	if err := checkBalances(balances("0", "0"), "allowance"); err != nil {
		t.Errorf("zero balances should pass, got %v", err)
	}

	err := checkBalances(balances("-0.01", "10"), "allowance")
	var insufficient *domain.ErrInsufficientBalance
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if insufficient.Balance != "current" {
		t.Errorf("Balance = %q, want %q", insufficient.Balance, "current")
	}

	err = checkBalances(balances("10", "-5"), "savings")
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if insufficient.Balance != "cleared" {
		t.Errorf("Balance = %q, want %q", insufficient.Balance, "cleared")
	}
}

func TestRecomputeBalances_MatchesIncremental(t *testing.T) {
	assigned := dec("300")
	txns := []txnFields{
		{Type: domain.TransactionDebit, Amount: dec("45.50"), IsCleared: true},
		{Type: domain.TransactionDebit, Amount: dec("12")},
		{Type: domain.TransactionCredit, Amount: dec("5"), IsCleared: true},
		{Type: domain.TransactionDebit, Amount: dec("100"), IsCleared: true},
	}

	incremental := domain.Balances{Current: assigned, Cleared: assigned}
	for _, txn := range txns {
		incremental = applyCreate(incremental, txn)
	}

	recomputed := recomputeBalances(assigned, txns)
	if !incremental.Current.Equal(recomputed.Current) || !incremental.Cleared.Equal(recomputed.Cleared) {
		t.Errorf("incremental %+v != recomputed %+v", incremental, recomputed)
	}
	assertBalances(t, recomputed, "159.50", "147.50")
}

func TestRecomputeBalances_NoTransactions(t *testing.T) {
	b := recomputeBalances(dec("200"), nil)
	assertBalances(t, b, "200", "200")
}

func TestTotalSpent_CreditsReduce(t *testing.T) {
	spent := totalSpent([]txnFields{
		{Type: domain.TransactionDebit, Amount: dec("100"), IsCleared: true},
		{Type: domain.TransactionDebit, Amount: dec("40")},
		{Type: domain.TransactionCredit, Amount: dec("30"), IsCleared: true},
	})
	if !spent.Equal(dec("110")) {
		t.Errorf("totalSpent = %s, want 110", spent)
	}
}

func TestValidateTxnInput(t *testing.T) {
	err := validateTxnInput(txnFields{Type: "TRANSFER", Amount: dec("10")})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation for bad type, got %v", err)
	}

	err = validateTxnInput(txnFields{Type: domain.TransactionDebit, Amount: dec("0")})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation for zero amount, got %v", err)
	}

	err = validateTxnInput(txnFields{Type: domain.TransactionCredit, Amount: dec("0.01")})
	if err != nil {
		t.Errorf("expected valid input, got %v", err)
	}
}
