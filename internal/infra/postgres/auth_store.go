package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

const userColumns = `id, email, name, password_hash, is_verified, stripe_customer_id, last_login_at, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_verified, stripe_customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.IsVerified, u.StripeCustomerID, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *Store) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsVerified,
		&u.StripeCustomerID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.ErrNotFound{Resource: "user", ID: id}
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) MarkUserVerified(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1`, userID)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	return err
}

func (s *Store) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET stripe_customer_id = $2, updated_at = now() WHERE id = $1`, userID, customerID)
	return err
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	return err
}

func (s *Store) StoreOTP(ctx context.Context, otp *domain.UserOTP) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_otps (id, user_id, code, expires_at, used)
		VALUES ($1, $2, $3, $4, FALSE)`,
		otp.ID, otp.UserID, otp.Code, otp.ExpiresAt,
	)
	return err
}

func (s *Store) GetValidOTP(ctx context.Context, userID, code string) (*domain.UserOTP, error) {
	var otp domain.UserOTP
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, code, expires_at, used FROM user_otps
		WHERE user_id = $1 AND code = $2 AND used = FALSE AND expires_at > now()
		ORDER BY expires_at DESC LIMIT 1`,
		userID, code,
	).Scan(&otp.ID, &otp.UserID, &otp.Code, &otp.ExpiresAt, &otp.Used)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

func (s *Store) MarkOTPUsed(ctx context.Context, otpID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE user_otps SET used = TRUE WHERE id = $1`, otpID)
	return err
}

func (s *Store) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)`,
		uuid.New().String(), userID, tokenHash, expiresAt,
	)
	return err
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked
		FROM refresh_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	return err
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1`, userID)
	return err
}

func (s *Store) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, subscription_id, subscription_status, subscription_start, subscription_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_id = EXCLUDED.subscription_id,
			subscription_status = EXCLUDED.subscription_status,
			subscription_start = EXCLUDED.subscription_start,
			subscription_end = EXCLUDED.subscription_end`,
		sub.ID, sub.UserID, sub.SubscriptionID, sub.SubscriptionStatus, sub.SubscriptionStart, sub.SubscriptionEnd,
	)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, subscription_id, subscription_status, subscription_start, subscription_end
		FROM subscriptions WHERE user_id = $1`,
		userID,
	).Scan(&sub.ID, &sub.UserID, &sub.SubscriptionID, &sub.SubscriptionStatus, &sub.SubscriptionStart, &sub.SubscriptionEnd)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) GetSubscriptionBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, subscription_id, subscription_status, subscription_start, subscription_end
		FROM subscriptions WHERE subscription_id = $1`,
		subscriptionID,
	).Scan(&sub.ID, &sub.UserID, &sub.SubscriptionID, &sub.SubscriptionStatus, &sub.SubscriptionStart, &sub.SubscriptionEnd)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
