package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const savingsColumns = `id, user_id, account_name,
	current_balance::text, cleared_balance::text, version, created_at, updated_at`

func scanSavingsTracker(row pgx.Row) (*domain.SavingsTracker, error) {
	var t domain.SavingsTracker
	var current, cleared string
	err := row.Scan(&t.ID, &t.UserID, &t.AccountName, &current, &cleared, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.CurrentBalance, err = parseDecimal(current); err != nil {
		return nil, err
	}
	if t.ClearedBalance, err = parseDecimal(cleared); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanSavingsTransaction(row pgx.Row) (*domain.SavingsTransaction, error) {
	var t domain.SavingsTransaction
	var amount string
	err := row.Scan(&t.ID, &t.SavingsID, &t.Type, &amount, &t.Description, &t.Date, &t.IsCleared, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

const savingsTxnColumns = `id, savings_id, type, amount::text, description, date, is_cleared, created_at`

func (s *Store) CreateSavingsTracker(ctx context.Context, t *domain.SavingsTracker) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO savings_trackers (id, user_id, account_name, current_balance, cleared_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7)`,
		t.ID, t.UserID, t.AccountName, t.CurrentBalance.String(), t.ClearedBalance.String(), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *Store) ListSavingsTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTracker, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM savings_trackers WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM savings_trackers
		WHERE user_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`, savingsColumns)
	rows, err := s.pool.Query(ctx, query, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.SavingsTracker
	for rows.Next() {
		t, err := scanSavingsTracker(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (s *Store) GetSavingsTracker(ctx context.Context, id string) (*domain.SavingsTracker, error) {
	query := fmt.Sprintf(`SELECT %s FROM savings_trackers WHERE id = $1`, savingsColumns)
	t, err := scanSavingsTracker(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "savings tracker", ID: id}
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) UpdateSavingsTracker(ctx context.Context, t *domain.SavingsTracker) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE savings_trackers SET account_name = $2, updated_at = $3 WHERE id = $1`,
		t.ID, t.AccountName, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "savings tracker", ID: t.ID}
	}
	return nil
}

func (s *Store) DeleteSavingsTracker(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savings_trackers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "savings tracker", ID: id}
	}
	return nil
}

func (s *Store) ListSavingsTransactions(ctx context.Context, savingsID string) ([]domain.SavingsTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM savings_transactions WHERE savings_id = $1 ORDER BY date DESC`, savingsTxnColumns)
	rows, err := s.pool.Query(ctx, query, savingsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SavingsTransaction
	for rows.Next() {
		t, err := scanSavingsTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) ListAllSavingsTransactions(ctx context.Context, userID string, q domain.ListQuery) ([]domain.SavingsTransaction, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM savings_transactions t
		JOIN savings_trackers s ON s.id = t.savings_id WHERE s.user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.savings_id, t.type, t.amount::text, t.description, t.date, t.is_cleared, t.created_at
		FROM savings_transactions t
		JOIN savings_trackers s ON s.id = t.savings_id
		WHERE s.user_id = $1 ORDER BY t.date DESC LIMIT $2 OFFSET $3`,
		userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.SavingsTransaction
	for rows.Next() {
		t, err := scanSavingsTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (s *Store) GetSavingsTransaction(ctx context.Context, savingsID, txnID string) (*domain.SavingsTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM savings_transactions WHERE id = $1 AND savings_id = $2`, savingsTxnColumns)
	t, err := scanSavingsTransaction(s.pool.QueryRow(ctx, query, txnID, savingsID))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "savings transaction", ID: txnID}
		}
		return nil, err
	}
	return t, nil
}

func bumpSavingsBalances(ctx context.Context, tx pgx.Tx, savingsID string, bal domain.Balances, version int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE savings_trackers SET
			current_balance = $2::numeric, cleared_balance = $3::numeric,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`,
		savingsID, bal.Current.String(), bal.Cleared.String(), version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrConflict{Message: "savings tracker was modified concurrently"}
	}
	return nil
}

func (s *Store) InsertSavingsTransaction(ctx context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO savings_transactions (id, savings_id, type, amount, description, date, is_cleared, created_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
			txn.ID, txn.SavingsID, txn.Type, txn.Amount.String(), txn.Description, txn.Date, txn.IsCleared, txn.CreatedAt,
		)
		if err != nil {
			return err
		}
		return bumpSavingsBalances(ctx, tx, txn.SavingsID, bal, version)
	})
}

func (s *Store) UpdateSavingsTransaction(ctx context.Context, txn *domain.SavingsTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE savings_transactions SET type = $3, amount = $4::numeric, description = $5, date = $6, is_cleared = $7
			WHERE id = $1 AND savings_id = $2`,
			txn.ID, txn.SavingsID, txn.Type, txn.Amount.String(), txn.Description, txn.Date, txn.IsCleared,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "savings transaction", ID: txn.ID}
		}
		return bumpSavingsBalances(ctx, tx, txn.SavingsID, bal, version)
	})
}

func (s *Store) DeleteSavingsTransaction(ctx context.Context, savingsID, txnID string, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM savings_transactions WHERE id = $1 AND savings_id = $2`, txnID, savingsID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "savings transaction", ID: txnID}
		}
		return bumpSavingsBalances(ctx, tx, savingsID, bal, version)
	})
}
