package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const cardColumns = `id, user_id, card_name, card_limit::text,
	current_balance::text, cleared_balance::text, version, created_at, updated_at`

func scanCardTracker(row pgx.Row) (*domain.CreditCardTracker, error) {
	var t domain.CreditCardTracker
	var limit *string
	var current, cleared string
	err := row.Scan(&t.ID, &t.UserID, &t.CardName, &limit, &current, &cleared, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if limit != nil {
		d, err := parseDecimal(*limit)
		if err != nil {
			return nil, err
		}
		t.Limit = &d
	}
	if t.CurrentBalance, err = parseDecimal(current); err != nil {
		return nil, err
	}
	if t.ClearedBalance, err = parseDecimal(cleared); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanCardTransaction(row pgx.Row) (*domain.CreditCardTransaction, error) {
	var t domain.CreditCardTransaction
	var amount string
	err := row.Scan(&t.ID, &t.CreditCardTrackerID, &t.Type, &amount, &t.Description, &t.Date, &t.IsCleared, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

const cardTxnColumns = `id, credit_card_tracker_id, type, amount::text, description, date, is_cleared, created_at`

// limitParam maps the optional card limit to a nullable numeric.
func limitParam(limit *decimal.Decimal) *string {
	if limit == nil {
		return nil
	}
	s := limit.String()
	return &s
}

func (s *Store) CreateCreditCardTracker(ctx context.Context, t *domain.CreditCardTracker) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credit_card_trackers (id, user_id, card_name, card_limit, current_balance, cleared_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8)`,
		t.ID, t.UserID, t.CardName, limitParam(t.Limit),
		t.CurrentBalance.String(), t.ClearedBalance.String(), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *Store) ListCreditCardTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.CreditCardTracker, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM credit_card_trackers WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM credit_card_trackers
		WHERE user_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`, cardColumns)
	rows, err := s.pool.Query(ctx, query, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.CreditCardTracker
	for rows.Next() {
		t, err := scanCardTracker(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (s *Store) GetCreditCardTracker(ctx context.Context, id string) (*domain.CreditCardTracker, error) {
	query := fmt.Sprintf(`SELECT %s FROM credit_card_trackers WHERE id = $1`, cardColumns)
	t, err := scanCardTracker(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "credit card tracker", ID: id}
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) UpdateCreditCardTracker(ctx context.Context, t *domain.CreditCardTracker) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE credit_card_trackers SET card_name = $2, card_limit = $3::numeric, updated_at = $4
		WHERE id = $1`,
		t.ID, t.CardName, limitParam(t.Limit), t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "credit card tracker", ID: t.ID}
	}
	return nil
}

func (s *Store) DeleteCreditCardTracker(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM credit_card_trackers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "credit card tracker", ID: id}
	}
	return nil
}

func (s *Store) ListCreditCardTransactions(ctx context.Context, cardID string) ([]domain.CreditCardTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM credit_card_transactions WHERE credit_card_tracker_id = $1 ORDER BY date DESC`, cardTxnColumns)
	rows, err := s.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CreditCardTransaction
	for rows.Next() {
		t, err := scanCardTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) ListAllCreditCardTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.CreditCardTransaction, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM credit_card_transactions t
		JOIN credit_card_trackers c ON c.id = t.credit_card_tracker_id WHERE c.user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.credit_card_tracker_id, t.type, t.amount::text, t.description, t.date, t.is_cleared, t.created_at
		FROM credit_card_transactions t
		JOIN credit_card_trackers c ON c.id = t.credit_card_tracker_id
		WHERE c.user_id = $1 ORDER BY t.date DESC LIMIT $2 OFFSET $3`,
		userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.CreditCardTransaction
	for rows.Next() {
		t, err := scanCardTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (s *Store) GetCreditCardTransaction(ctx context.Context, cardID, txnID string) (*domain.CreditCardTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM credit_card_transactions WHERE id = $1 AND credit_card_tracker_id = $2`, cardTxnColumns)
	t, err := scanCardTransaction(s.pool.QueryRow(ctx, query, txnID, cardID))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "credit card transaction", ID: txnID}
		}
		return nil, err
	}
	return t, nil
}

func bumpCardBalances(ctx context.Context, tx pgx.Tx, cardID string, bal domain.Balances, version int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE credit_card_trackers SET
			current_balance = $2::numeric, cleared_balance = $3::numeric,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`,
		cardID, bal.Current.String(), bal.Cleared.String(), version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrConflict{Message: "credit card tracker was modified concurrently"}
	}
	return nil
}

func (s *Store) InsertCreditCardTransaction(ctx context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO credit_card_transactions (id, credit_card_tracker_id, type, amount, description, date, is_cleared, created_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
			txn.ID, txn.CreditCardTrackerID, txn.Type, txn.Amount.String(), txn.Description, txn.Date, txn.IsCleared, txn.CreatedAt,
		)
		if err != nil {
			return err
		}
		return bumpCardBalances(ctx, tx, txn.CreditCardTrackerID, bal, version)
	})
}

func (s *Store) UpdateCreditCardTransaction(ctx context.Context, txn *domain.CreditCardTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE credit_card_transactions SET type = $3, amount = $4::numeric, description = $5, date = $6, is_cleared = $7
			WHERE id = $1 AND credit_card_tracker_id = $2`,
			txn.ID, txn.CreditCardTrackerID, txn.Type, txn.Amount.String(), txn.Description, txn.Date, txn.IsCleared,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "credit card transaction", ID: txn.ID}
		}
		return bumpCardBalances(ctx, tx, txn.CreditCardTrackerID, bal, version)
	})
}

func (s *Store) DeleteCreditCardTransaction(ctx context.Context, cardID, txnID string, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM credit_card_transactions WHERE id = $1 AND credit_card_tracker_id = $2`, txnID, cardID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "credit card transaction", ID: txnID}
		}
		return bumpCardBalances(ctx, tx, cardID, bal, version)
	})
}
