package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const billColumns = `id, paycheck_id, name, amount::text, due_date, notes, created_at, updated_at`

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	var amount string
	err := row.Scan(&b.ID, &b.PaycheckID, &b.Name, &amount, &b.DueDate, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBill(ctx context.Context, b *domain.Bill, totals domain.PaycheckTotals) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bills (id, paycheck_id, name, amount, due_date, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
			b.ID, b.PaycheckID, b.Name, b.Amount.String(), b.DueDate, b.Notes, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return applyPaycheckTotals(ctx, tx, totals)
	})
}

func billSortColumn(sortBy string) string {
	switch sortBy {
	case "amount":
		return "b.amount"
	case "name":
		return "b.name"
	default:
		return "b.due_date"
	}
}

func (s *Store) ListBills(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Bill, int, error) {
	args := []any{userID}
	where := `p.user_id = $1`
	if pcID, ok := q.Filters["paycheck_id"]; ok {
		args = append(args, pcID)
		where += fmt.Sprintf(` AND b.paycheck_id = $%d`, len(args))
	}

	var total int
	countQuery := fmt.Sprintf(
		`SELECT count(*) FROM bills b JOIN paychecks p ON p.id = b.paycheck_id WHERE %s`, where)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	args = append(args, q.Limit, q.Offset())
	query := fmt.Sprintf(`
		SELECT b.id, b.paycheck_id, b.name, b.amount::text, b.due_date, b.notes, b.created_at, b.updated_at
		FROM bills b JOIN paychecks p ON p.id = b.paycheck_id
		WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, billSortColumn(q.SortBy), dir, len(args)-1, len(args),
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (s *Store) ListBillsByPaycheck(ctx context.Context, paycheckID string) ([]domain.Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bills WHERE paycheck_id = $1 ORDER BY due_date`, billColumns)
	rows, err := s.pool.Query(ctx, query, paycheckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) GetBill(ctx context.Context, id string) (*domain.Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bills WHERE id = $1`, billColumns)
	b, err := scanBill(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) UpdateBill(ctx context.Context, b *domain.Bill, totals domain.PaycheckTotals) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bills SET name = $2, amount = $3::numeric, due_date = $4, notes = $5, updated_at = $6
			WHERE id = $1`,
			b.ID, b.Name, b.Amount.String(), b.DueDate, b.Notes, b.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "bill", ID: b.ID}
		}
		return applyPaycheckTotals(ctx, tx, totals)
	})
}

func (s *Store) DeleteBill(ctx context.Context, id string, totals domain.PaycheckTotals) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "bill", ID: id}
		}
		return applyPaycheckTotals(ctx, tx, totals)
	})
}
