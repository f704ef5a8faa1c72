package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const allowanceColumns = `id, user_id, paycheck_id, assigned_amount::text,
	current_balance::text, cleared_balance::text, version, created_at, updated_at`

func scanAllowanceTracker(row pgx.Row) (*domain.AllowanceTracker, error) {
	var t domain.AllowanceTracker
	var assigned, current, cleared string
	err := row.Scan(
		&t.ID, &t.UserID, &t.PaycheckID, &assigned,
		&current, &cleared, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.AssignedAmount, err = parseDecimal(assigned); err != nil {
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

func (s *Store) GetAllowanceTracker(ctx context.Context, id string) (*domain.AllowanceTracker, error) {
	query := fmt.Sprintf(`SELECT %s FROM allowance_trackers WHERE id = $1`, allowanceColumns)
	t, err := scanAllowanceTracker(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "allowance tracker", ID: id}
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) GetAllowanceTrackerByPaycheck(ctx context.Context, paycheckID string) (*domain.AllowanceTracker, error) {
	query := fmt.Sprintf(`SELECT %s FROM allowance_trackers WHERE paycheck_id = $1`, allowanceColumns)
	t, err := scanAllowanceTracker(s.pool.QueryRow(ctx, query, paycheckID))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "allowance tracker", ID: paycheckID}
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) GetLatestAllowanceTracker(ctx context.Context, userID string) (*domain.AllowanceTracker, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM allowance_trackers
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, allowanceColumns)
	t, err := scanAllowanceTracker(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "allowance tracker", ID: "latest"}
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) ListAllowanceTrackers(ctx context.Context, userID string, q domain.ListQuery) ([]domain.AllowanceTracker, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM allowance_trackers WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM allowance_trackers
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, allowanceColumns)
	rows, err := s.pool.Query(ctx, query, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.AllowanceTracker
	for rows.Next() {
		t, err := scanAllowanceTracker(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (s *Store) UpsertAllowanceTracker(ctx context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO allowance_trackers
				(id, user_id, paycheck_id, assigned_amount, current_balance, cleared_balance, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8)
			ON CONFLICT (paycheck_id) DO UPDATE SET
				assigned_amount = EXCLUDED.assigned_amount,
				current_balance = EXCLUDED.current_balance,
				cleared_balance = EXCLUDED.cleared_balance,
				version = allowance_trackers.version + 1,
				updated_at = EXCLUDED.updated_at`,
			t.ID, t.UserID, t.PaycheckID, t.AssignedAmount.String(),
			t.CurrentBalance.String(), t.ClearedBalance.String(), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return applyPaycheckTotals(ctx, tx, totals)
	})
}

func (s *Store) UpdateAllowanceAssignment(ctx context.Context, t *domain.AllowanceTracker, totals domain.PaycheckTotals) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE allowance_trackers SET
				assigned_amount = $2::numeric, current_balance = $3::numeric,
				cleared_balance = $4::numeric, version = version + 1, updated_at = $5
			WHERE id = $1 AND version = $6`,
			t.ID, t.AssignedAmount.String(), t.CurrentBalance.String(),
			t.ClearedBalance.String(), t.UpdatedAt, t.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrConflict{Message: "allowance tracker was modified concurrently"}
		}
		return applyPaycheckTotals(ctx, tx, totals)
	})
}

func (s *Store) ListAllowanceTransactions(ctx context.Context, allowanceID string) ([]domain.AllowanceTransaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, allowance_id, amount::text, type, is_cleared, created_at
		FROM allowance_transactions WHERE allowance_id = $1 ORDER BY created_at`, allowanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AllowanceTransaction
	for rows.Next() {
		var t domain.AllowanceTransaction
		var amount string
		if err := rows.Scan(&t.ID, &t.AllowanceID, &amount, &t.Type, &t.IsCleared, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetAllowanceTransaction(ctx context.Context, allowanceID, txnID string) (*domain.AllowanceTransaction, error) {
	var t domain.AllowanceTransaction
	var amount string
	err := s.pool.QueryRow(ctx, `
		SELECT id, allowance_id, amount::text, type, is_cleared, created_at
		FROM allowance_transactions WHERE id = $1 AND allowance_id = $2`, txnID, allowanceID,
	).Scan(&t.ID, &t.AllowanceID, &amount, &t.Type, &t.IsCleared, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "allowance transaction", ID: txnID}
		}
		return nil, err
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

// bumpAllowanceBalances is the version-guarded balance write shared by the
// transaction mutations.
func bumpAllowanceBalances(ctx context.Context, tx pgx.Tx, allowanceID string, bal domain.Balances, version int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE allowance_trackers SET
			current_balance = $2::numeric, cleared_balance = $3::numeric,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`,
		allowanceID, bal.Current.String(), bal.Cleared.String(), version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrConflict{Message: "allowance tracker was modified concurrently"}
	}
	return nil
}

func (s *Store) InsertAllowanceTransaction(ctx context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO allowance_transactions (id, allowance_id, amount, type, is_cleared, created_at)
			VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
			txn.ID, txn.AllowanceID, txn.Amount.String(), txn.Type, txn.IsCleared, txn.CreatedAt,
		)
		if err != nil {
			return err
		}
		return bumpAllowanceBalances(ctx, tx, txn.AllowanceID, bal, version)
	})
}

func (s *Store) UpdateAllowanceTransaction(ctx context.Context, txn *domain.AllowanceTransaction, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE allowance_transactions SET amount = $3::numeric, type = $4, is_cleared = $5
			WHERE id = $1 AND allowance_id = $2`,
			txn.ID, txn.AllowanceID, txn.Amount.String(), txn.Type, txn.IsCleared,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "allowance transaction", ID: txn.ID}
		}
		return bumpAllowanceBalances(ctx, tx, txn.AllowanceID, bal, version)
	})
}

func (s *Store) DeleteAllowanceTransaction(ctx context.Context, allowanceID, txnID string, bal domain.Balances, version int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM allowance_transactions WHERE id = $1 AND allowance_id = $2`,
			txnID, allowanceID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "allowance transaction", ID: txnID}
		}
		return bumpAllowanceBalances(ctx, tx, allowanceID, bal, version)
	})
}
