// Package postgres implements the data stores on PostgreSQL via pgx.
// Tracker balances are written together with their triggering transaction
// in a single database transaction, guarded by a per-tracker version
// column so a stale writer is refused instead of silently losing an
// update.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store holds the connection pool shared by all resource stores.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// parseDecimal converts a NUMERIC column selected as text.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Info("database schema up to date")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	stripe_customer_id TEXT NOT NULL DEFAULT '',
	last_login_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_otps (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	code TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	used BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	revoked BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	subscription_id TEXT NOT NULL,
	subscription_status TEXT NOT NULL,
	subscription_start TIMESTAMPTZ,
	subscription_end TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS paychecks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	amount NUMERIC(14,2) NOT NULL,
	paycheck_date TIMESTAMPTZ NOT NULL,
	frequency TEXT NOT NULL,
	coverage_start TIMESTAMPTZ NOT NULL,
	coverage_end TIMESTAMPTZ NOT NULL,
	month INT NOT NULL,
	year INT NOT NULL,
	total_bills NUMERIC(14,2) NOT NULL DEFAULT 0,
	allowance_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	savings_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_paychecks_user_month ON paychecks (user_id, year, month);

CREATE TABLE IF NOT EXISTS bills (
	id TEXT PRIMARY KEY,
	paycheck_id TEXT NOT NULL REFERENCES paychecks(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bills_paycheck ON bills (paycheck_id);

CREATE TABLE IF NOT EXISTS allowance_trackers (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	paycheck_id TEXT NOT NULL UNIQUE REFERENCES paychecks(id) ON DELETE CASCADE,
	assigned_amount NUMERIC(14,2) NOT NULL,
	current_balance NUMERIC(14,2) NOT NULL,
	cleared_balance NUMERIC(14,2) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS allowance_transactions (
	id TEXT PRIMARY KEY,
	allowance_id TEXT NOT NULL REFERENCES allowance_trackers(id) ON DELETE CASCADE,
	amount NUMERIC(14,2) NOT NULL,
	type TEXT NOT NULL,
	is_cleared BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_allowance_txns_tracker ON allowance_transactions (allowance_id);

CREATE TABLE IF NOT EXISTS savings_trackers (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	account_name TEXT NOT NULL,
	current_balance NUMERIC(14,2) NOT NULL,
	cleared_balance NUMERIC(14,2) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS savings_transactions (
	id TEXT PRIMARY KEY,
	savings_id TEXT NOT NULL REFERENCES savings_trackers(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date TIMESTAMPTZ NOT NULL,
	is_cleared BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_savings_txns_tracker ON savings_transactions (savings_id);

CREATE TABLE IF NOT EXISTS credit_card_trackers (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	card_name TEXT NOT NULL,
	card_limit NUMERIC(14,2),
	current_balance NUMERIC(14,2) NOT NULL,
	cleared_balance NUMERIC(14,2) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS credit_card_transactions (
	id TEXT PRIMARY KEY,
	credit_card_tracker_id TEXT NOT NULL REFERENCES credit_card_trackers(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date TIMESTAMPTZ NOT NULL,
	is_cleared BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_card_txns_tracker ON credit_card_transactions (credit_card_tracker_id);
`
