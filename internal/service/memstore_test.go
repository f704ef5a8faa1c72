package service_test

// In-memory store fakes shared by the service tests. They honor the same
// contracts as the postgres store: resource getters return
// domain.ErrNotFound, FindOverlappingPaycheck returns (nil, nil) on no
// match, and tracker transaction writes enforce the version check.

import (
	"context"
	"fmt"
	"time"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

type memStore struct {
	nextID int

	// beforeWrite, when set, runs right before a versioned tracker write;
	// tests use it to slip in a concurrent writer.
	beforeWrite func()

	paychecks     map[string]*domain.Paycheck
	bills         map[string]*domain.Bill
	allowances    map[string]*domain.AllowanceTracker
	allowanceTxns map[string][]domain.AllowanceTransaction
	savings       map[string]*domain.SavingsTracker
	savingsTxns   map[string][]domain.SavingsTransaction
	cards         map[string]*domain.CreditCardTracker
	cardTxns      map[string][]domain.CreditCardTransaction
}

func newMemStore() *memStore {
	return &memStore{
		paychecks:     map[string]*domain.Paycheck{},
		bills:         map[string]*domain.Bill{},
		allowances:    map[string]*domain.AllowanceTracker{},
		allowanceTxns: map[string][]domain.AllowanceTransaction{},
		savings:       map[string]*domain.SavingsTracker{},
		savingsTxns:   map[string][]domain.SavingsTransaction{},
		cards:         map[string]*domain.CreditCardTracker{},
		cardTxns:      map[string][]domain.CreditCardTransaction{},
	}
}

func (m *memStore) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

// --- PaycheckStore ---

func (m *memStore) CreatePaycheck(_ context.Context, p *domain.Paycheck) error {
	if p.ID == "" {
		p.ID = m.id()
	}
	cp := *p
	m.paychecks[p.ID] = &cp
	return nil
}

func (m *memStore) ListPaychecks(_ context.Context, userID string, _ domain.ListQuery) ([]domain.Paycheck, int, error) {
	var out []domain.Paycheck
	for _, p := range m.paychecks {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *memStore) ListPaychecksByMonth(_ context.Context, userID string, month, year int) ([]domain.Paycheck, error) {
	var out []domain.Paycheck
	for _, p := range m.paychecks {
		if p.UserID == userID && p.Month == month && p.Year == year {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetPaycheck(_ context.Context, id string) (*domain.Paycheck, error) {
	p, ok := m.paychecks[id]
	if !ok {
		return nil, &domain.ErrNotFound{}
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetLatestPaycheck(_ context.Context, userID string) (*domain.Paycheck, error) {
	var latest *domain.Paycheck
	for _, p := range m.paychecks {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.PaycheckDate.After(latest.PaycheckDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, &domain.ErrNotFound{}
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) FindOverlappingPaycheck(_ context.Context, userID string, start, end time.Time, excludeID string) (*domain.Paycheck, error) {
	for _, p := range m.paychecks {
		if p.UserID != userID || p.ID == excludeID {
			continue
		}
		if !p.CoverageStart.After(end) && !p.CoverageEnd.Before(start) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdatePaycheck(_ context.Context, p *domain.Paycheck) error {
	if _, ok := m.paychecks[p.ID]; !ok {
		return &domain.ErrNotFound{}
	}
	cp := *p
	m.paychecks[p.ID] = &cp
	return nil
}

func (m *memStore) DeletePaycheck(_ context.Context, id string) error {
	if _, ok := m.paychecks[id]; !ok {
		return &domain.ErrNotFound{}
	}
	delete(m.paychecks, id)
	for bid, b := range m.bills {
		if b.PaycheckID == id {
			delete(m.bills, bid)
		}
	}
	for aid, a := range m.allowances {
		if a.PaycheckID == id {
			delete(m.allowances, aid)
			delete(m.allowanceTxns, aid)
		}
	}
	return nil
}

func (m *memStore) applyTotals(totals domain.PaycheckTotals) {
	if p, ok := m.paychecks[totals.PaycheckID]; ok {
		p.TotalBills = totals.TotalBills
		p.AllowanceAmount = totals.AllowanceAmount
		p.SavingsAmount = totals.SavingsAmount
	}
}

// --- BillStore ---

func (m *memStore) CreateBill(_ context.Context, b *domain.Bill, totals domain.PaycheckTotals) error {
	if b.ID == "" {
		b.ID = m.id()
	}
	cp := *b
	m.bills[b.ID] = &cp
	m.applyTotals(totals)
	return nil
}

func (m *memStore) ListBills(_ context.Context, userID string, _ domain.ListQuery) ([]domain.Bill, int, error) {
	var out []domain.Bill
	for _, b := range m.bills {
		if p, ok := m.paychecks[b.PaycheckID]; ok && p.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (m *memStore) ListBillsByPaycheck(_ context.Context, paycheckID string) ([]domain.Bill, error) {
	var out []domain.Bill
	for _, b := range m.bills {
		if b.PaycheckID == paycheckID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memStore) GetBill(_ context.Context, id string) (*domain.Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, &domain.ErrNotFound{}
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) UpdateBill(_ context.Context, b *domain.Bill, totals domain.PaycheckTotals) error {
	if _, ok := m.bills[b.ID]; !ok {
		return &domain.ErrNotFound{}
	}
	cp := *b
	m.bills[b.ID] = &cp
	m.applyTotals(totals)
	return nil
}

func (m *memStore) DeleteBill(_ context.Context, id string, totals domain.PaycheckTotals) error {
	if _, ok := m.bills[id]; !ok {
		return &domain.ErrNotFound{}
	}
	delete(m.bills, id)
	m.applyTotals(totals)
	return nil
}

// --- AllowanceStore ---

func (m *memStore) GetAllowanceTracker(_ context.Context, id string) (*domain.AllowanceTracker, error) {
	t, ok := m.allowances[id]
	if !ok {
		return nil, &domain.ErrNotFound{}
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) GetAllowanceTrackerByPaycheck(_ context.Context, paycheckID string) (*domain.AllowanceTracker, error) {
	for _, t := range m.allowances {
		if t.PaycheckID == paycheckID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{}
}

func (m *memStore) GetLatestAllowanceTracker(_ context.Context, userID string) (*domain.AllowanceTracker, error) {
	var latest *domain.AllowanceTracker
	for _, t := range m.allowances {
		if t.UserID != userID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, &domain.ErrNotFound{}
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) ListAllowanceTrackers(_ context.Context, userID string, _ domain.ListQuery) ([]domain.AllowanceTracker, int, error) {
	var out []domain.AllowanceTracker
	for _, t := range m.allowances {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *memStore) UpsertAllowanceTracker(_ context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error {
	if t.ID == "" {
		t.ID = m.id()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	cp := *t
	m.allowances[t.ID] = &cp
	m.applyTotals(totals)
	return nil
}

func (m *memStore) UpdateAllowanceAssignment(_ context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	cur, ok := m.allowances[t.ID]
	if !ok {
		return &domain.ErrNotFound{}
	}
	if cur.Version != t.Version {
		return &domain.ErrConflict{Message: "version conflict"}
	}
	cp := *t
	cp.Version++
	m.allowances[t.ID] = &cp
	m.applyTotals(totals)
	return nil
}

func (m *memStore) ListAllowanceTransactions(_ context.Context, allowanceID string) ([]domain.AllowanceTransaction, error) {
	return append([]domain.AllowanceTransaction(nil), m.allowanceTxns[allowanceID]...), nil
}

func (m *memStore) GetAllowanceTransaction(_ context.Context, allowanceID, txnID string) (*domain.AllowanceTransaction, error) {
	for _, txn := range m.allowanceTxns[allowanceID] {
		if txn.ID == txnID {
			cp := txn
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{}
}

func (m *memStore) bumpAllowance(id string, bal domain.Balances, version int64) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	t, ok := m.allowances[id]
	if !ok {
		return &domain.ErrNotFound{}
	}
	if t.Version != version {
		return &domain.ErrConflict{Message: "version conflict"}
	}
	t.CurrentBalance = bal.Current
	t.ClearedBalance = bal.Cleared
	t.Version++
	return nil
}

func (m *memStore) InsertAllowanceTransaction(_ context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpAllowance(txn.AllowanceID, bal, version); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = m.id()
	}
	m.allowanceTxns[txn.AllowanceID] = append(m.allowanceTxns[txn.AllowanceID], *txn)
	return nil
}

func (m *memStore) UpdateAllowanceTransaction(_ context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpAllowance(txn.AllowanceID, bal, version); err != nil {
		return err
	}
	txns := m.allowanceTxns[txn.AllowanceID]
	for i := range txns {
		if txns[i].ID == txn.ID {
			txns[i] = *txn
			return nil
		}
	}
	return &domain.ErrNotFound{}
}

func (m *memStore) DeleteAllowanceTransaction(_ context.Context, allowanceID, txnID string, bal domain.Balances, version int64) error {
	if err := m.bumpAllowance(allowanceID, bal, version); err != nil {
		return err
	}
	txns := m.allowanceTxns[allowanceID]
	for i := range txns {
		if txns[i].ID == txnID {
			m.allowanceTxns[allowanceID] = append(txns[:i], txns[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{}
}

// --- SavingsStore ---

func (m *memStore) CreateSavingsTracker(_ context.Context, t *domain.SavingsTracker) error {
	if t.ID == "" {
		t.ID = m.id()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	cp := *t
	m.savings[t.ID] = &cp
	return nil
}

func (m *memStore) ListSavingsTrackers(_ context.Context, userID string, _ domain.ListQuery) ([]domain.SavingsTracker, int, error) {
	var out []domain.SavingsTracker
	for _, t := range m.savings {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *memStore) GetSavingsTracker(_ context.Context, id string) (*domain.SavingsTracker, error) {
	t, ok := m.savings[id]
	if !ok {
		return nil, &domain.ErrNotFound{}
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) UpdateSavingsTracker(_ context.Context, t *domain.SavingsTracker) error {
	if _, ok := m.savings[t.ID]; !ok {
		return &domain.ErrNotFound{}
	}
	cp := *t
	m.savings[t.ID] = &cp
	return nil
}

func (m *memStore) DeleteSavingsTracker(_ context.Context, id string) error {
	if _, ok := m.savings[id]; !ok {
		return &domain.ErrNotFound{}
	}
	delete(m.savings, id)
	delete(m.savingsTxns, id)
	return nil
}

func (m *memStore) ListSavingsTransactions(_ context.Context, savingsID string) ([]domain.SavingsTransaction, error) {
	return append([]domain.SavingsTransaction(nil), m.savingsTxns[savingsID]...), nil
}

func (m *memStore) ListAllSavingsTransactions(_ context.Context, userID string, _ domain.ListQuery) ([]domain.SavingsTransaction, int, error) {
	var out []domain.SavingsTransaction
	for sid, txns := range m.savingsTxns {
		if t, ok := m.savings[sid]; ok && t.UserID == userID {
			out = append(out, txns...)
		}
	}
	return out, len(out), nil
}

func (m *memStore) GetSavingsTransaction(_ context.Context, savingsID, txnID string) (*domain.SavingsTransaction, error) {
	for _, txn := range m.savingsTxns[savingsID] {
		if txn.ID == txnID {
			cp := txn
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{}
}

func (m *memStore) bumpSavings(id string, bal domain.Balances, version int64) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	t, ok := m.savings[id]
	if !ok {
		return &domain.ErrNotFound{}
	}
	if t.Version != version {
		return &domain.ErrConflict{Message: "version conflict"}
	}
	t.CurrentBalance = bal.Current
	t.ClearedBalance = bal.Cleared
	t.Version++
	return nil
}

func (m *memStore) InsertSavingsTransaction(_ context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpSavings(txn.SavingsID, bal, version); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = m.id()
	}
	m.savingsTxns[txn.SavingsID] = append(m.savingsTxns[txn.SavingsID], *txn)
	return nil
}

func (m *memStore) UpdateSavingsTransaction(_ context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpSavings(txn.SavingsID, bal, version); err != nil {
		return err
	}
	txns := m.savingsTxns[txn.SavingsID]
	for i := range txns {
		if txns[i].ID == txn.ID {
			txns[i] = *txn
			return nil
		}
	}
	return &domain.ErrNotFound{}
}

func (m *memStore) DeleteSavingsTransaction(_ context.Context, savingsID, txnID string, bal domain.Balances, version int64) error {
	if err := m.bumpSavings(savingsID, bal, version); err != nil {
		return err
	}
	txns := m.savingsTxns[savingsID]
	for i := range txns {
		if txns[i].ID == txnID {
			m.savingsTxns[savingsID] = append(txns[:i], txns[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{}
}

// --- CreditCardStore ---

func (m *memStore) CreateCreditCardTracker(_ context.Context, t *domain.CreditCardTracker) error {
	if t.ID == "" {
		t.ID = m.id()
	}
	if t.Version == 0 {
		t.Version = 1
	}
	cp := *t
	m.cards[t.ID] = &cp
	return nil
}

func (m *memStore) ListCreditCardTrackers(_ context.Context, userID string, _ domain.ListQuery) ([]domain.CreditCardTracker, int, error) {
	var out []domain.CreditCardTracker
	for _, t := range m.cards {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *memStore) GetCreditCardTracker(_ context.Context, id string) (*domain.CreditCardTracker, error) {
	t, ok := m.cards[id]
	if !ok {
		return nil, &domain.ErrNotFound{}
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) UpdateCreditCardTracker(_ context.Context, t *domain.CreditCardTracker) error {
	if _, ok := m.cards[t.ID]; !ok {
		return &domain.ErrNotFound{}
	}
	cp := *t
	m.cards[t.ID] = &cp
	return nil
}

func (m *memStore) DeleteCreditCardTracker(_ context.Context, id string) error {
	if _, ok := m.cards[id]; !ok {
		return &domain.ErrNotFound{}
	}
	delete(m.cards, id)
	delete(m.cardTxns, id)
	return nil
}

func (m *memStore) ListCreditCardTransactions(_ context.Context, cardID string) ([]domain.CreditCardTransaction, error) {
	return append([]domain.CreditCardTransaction(nil), m.cardTxns[cardID]...), nil
}

func (m *memStore) ListAllCreditCardTransactions(_ context.Context, userID string, _ domain.ListQuery) ([]domain.CreditCardTransaction, int, error) {
	var out []domain.CreditCardTransaction
	for cid, txns := range m.cardTxns {
		if t, ok := m.cards[cid]; ok && t.UserID == userID {
			out = append(out, txns...)
		}
	}
	return out, len(out), nil
}

func (m *memStore) GetCreditCardTransaction(_ context.Context, cardID, txnID string) (*domain.CreditCardTransaction, error) {
	for _, txn := range m.cardTxns[cardID] {
		if txn.ID == txnID {
			cp := txn
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{}
}

func (m *memStore) bumpCard(id string, bal domain.Balances, version int64) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	t, ok := m.cards[id]
	if !ok {
		return &domain.ErrNotFound{}
	}
	if t.Version != version {
		return &domain.ErrConflict{Message: "version conflict"}
	}
	t.CurrentBalance = bal.Current
	t.ClearedBalance = bal.Cleared
	t.Version++
	return nil
}

func (m *memStore) InsertCreditCardTransaction(_ context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpCard(txn.CreditCardTrackerID, bal, version); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = m.id()
	}
	m.cardTxns[txn.CreditCardTrackerID] = append(m.cardTxns[txn.CreditCardTrackerID], *txn)
	return nil
}

func (m *memStore) UpdateCreditCardTransaction(_ context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error {
	if err := m.bumpCard(txn.CreditCardTrackerID, bal, version); err != nil {
		return err
	}
	txns := m.cardTxns[txn.CreditCardTrackerID]
	for i := range txns {
		if txns[i].ID == txn.ID {
			txns[i] = *txn
			return nil
		}
	}
	return &domain.ErrNotFound{}
}

func (m *memStore) DeleteCreditCardTransaction(_ context.Context, cardID, txnID string, bal domain.Balances, version int64) error {
	if err := m.bumpCard(cardID, bal, version); err != nil {
		return err
	}
	txns := m.cardTxns[cardID]
	for i := range txns {
		if txns[i].ID == txnID {
			m.cardTxns[cardID] = append(txns[:i], txns[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{}
}
