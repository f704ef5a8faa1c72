package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const paycheckColumns = `id, user_id, amount::text, paycheck_date, frequency,
	coverage_start, coverage_end, month, year,
	total_bills::text, allowance_amount::text, savings_amount::text,
	notes, created_at, updated_at`

func scanPaycheck(row pgx.Row) (*domain.Paycheck, error) {
	var p domain.Paycheck
	var amount, totalBills, allowance, savings string
	err := row.Scan(
		&p.ID, &p.UserID, &amount, &p.PaycheckDate, &p.Frequency,
		&p.CoverageStart, &p.CoverageEnd, &p.Month, &p.Year,
		&totalBills, &allowance, &savings,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if p.TotalBills, err = parseDecimal(totalBills); err != nil {
		return nil, err
	}
	if p.AllowanceAmount, err = parseDecimal(allowance); err != nil {
		return nil, err
	}
	if p.SavingsAmount, err = parseDecimal(savings); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO paychecks (id, user_id, amount, paycheck_date, frequency,
			coverage_start, coverage_end, month, year,
			total_bills, allowance_amount, savings_amount,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10::numeric, $11::numeric, $12::numeric, $13, $14, $15)`,
		p.ID, p.UserID, p.Amount.String(), p.PaycheckDate, p.Frequency,
		p.CoverageStart, p.CoverageEnd, p.Month, p.Year,
		p.TotalBills.String(), p.AllowanceAmount.String(), p.SavingsAmount.String(),
		p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// paycheckSortColumn whitelists client-supplied sort keys.
func paycheckSortColumn(sortBy string) string {
	switch sortBy {
	case "amount":
		return "amount"
	case "created_at":
		return "created_at"
	default:
		return "paycheck_date"
	}
}

func (s *Store) ListPaychecks(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Paycheck, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM paychecks WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT %s FROM paychecks WHERE user_id = $1 ORDER BY %s %s LIMIT $2 OFFSET $3`,
		paycheckColumns, paycheckSortColumn(q.SortBy), dir,
	)
	rows, err := s.pool.Query(ctx, query, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Paycheck
	for rows.Next() {
		p, err := scanPaycheck(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (s *Store) ListPaychecksByMonth(ctx context.Context, userID string, month, year int) ([]domain.Paycheck, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM paychecks WHERE user_id = $1 AND month = $2 AND year = $3 ORDER BY paycheck_date`,
		paycheckColumns,
	)
	rows, err := s.pool.Query(ctx, query, userID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Paycheck
	for rows.Next() {
		p, err := scanPaycheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) GetPaycheck(ctx context.Context, id string) (*domain.Paycheck, error) {
	query := fmt.Sprintf(`SELECT %s FROM paychecks WHERE id = $1`, paycheckColumns)
	p, err := scanPaycheck(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "paycheck", ID: id}
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) GetLatestPaycheck(ctx context.Context, userID string) (*domain.Paycheck, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM paychecks WHERE user_id = $1 ORDER BY paycheck_date DESC LIMIT 1`,
		paycheckColumns,
	)
	p, err := scanPaycheck(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "paycheck", ID: "latest"}
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) FindOverlappingPaycheck(ctx context.Context, userID string, start, end time.Time, excludeID string) (*domain.Paycheck, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM paychecks
		WHERE user_id = $1 AND id <> $2
		  AND coverage_start <= $4 AND coverage_end >= $3
		LIMIT 1`, paycheckColumns)
	p, err := scanPaycheck(s.pool.QueryRow(ctx, query, userID, excludeID, start, end))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE paychecks SET
			amount = $2::numeric, paycheck_date = $3, frequency = $4,
			coverage_start = $5, coverage_end = $6, month = $7, year = $8,
			total_bills = $9::numeric, allowance_amount = $10::numeric, savings_amount = $11::numeric,
			notes = $12, updated_at = $13
		WHERE id = $1`,
		p.ID, p.Amount.String(), p.PaycheckDate, p.Frequency,
		p.CoverageStart, p.CoverageEnd, p.Month, p.Year,
		p.TotalBills.String(), p.AllowanceAmount.String(), p.SavingsAmount.String(),
		p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "paycheck", ID: p.ID}
	}
	return nil
}

func (s *Store) DeletePaycheck(ctx context.Context, id string) error {
	// Bills, the allowance tracker and its transactions go with the
	// paycheck via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, `DELETE FROM paychecks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "paycheck", ID: id}
	}
	return nil
}

// applyPaycheckTotals rewrites a paycheck's derived totals inside an open
// transaction.
func applyPaycheckTotals(ctx context.Context, tx pgx.Tx, totals domain.PaycheckTotals) error {
	tag, err := tx.Exec(ctx, `
		UPDATE paychecks SET
			total_bills = $2::numeric, allowance_amount = $3::numeric,
			savings_amount = $4::numeric, updated_at = now()
		WHERE id = $1`,
		totals.PaycheckID, totals.TotalBills.String(),
		totals.AllowanceAmount.String(), totals.SavingsAmount.String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "paycheck", ID: totals.PaycheckID}
	}
	return nil
}
