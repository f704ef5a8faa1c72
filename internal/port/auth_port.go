package port

import (
	"context"
	"time"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

// AuthStore defines all data operations for the authentication system.
// Lookups (GetUserByEmail, GetRefreshToken, GetValidOTP, GetSubscription)
// return (nil, nil) when there is no matching row; only GetUserByID maps
// a missing row to domain.ErrNotFound.
type AuthStore interface {
	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	MarkUserVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	TouchLastLogin(ctx context.Context, userID string) error

	// One-time codes
	StoreOTP(ctx context.Context, otp *domain.UserOTP) error
	GetValidOTP(ctx context.Context, userID, code string) (*domain.UserOTP, error)
	MarkOTPUsed(ctx context.Context, otpID string) error

	// Refresh tokens
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error

	// Subscriptions
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	GetSubscriptionBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
}
