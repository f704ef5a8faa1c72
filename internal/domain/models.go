// Package domain defines the core business entities for the budget tracker.
// These models are independent of transport and persistence and represent
// the canonical data structures used throughout the API.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Users / Auth
// ============================================================

// User represents a registered account holder.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	IsVerified       bool       `json:"is_verified"`
	StripeCustomerID string     `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserOTP is a one-time verification code sent by email.
type UserOTP struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

// RefreshToken is a hashed refresh token stored in the database.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// Subscription mirrors the user's Stripe subscription state.
type Subscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	SubscriptionID     string     `json:"subscription_id"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionStart  *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time `json:"subscription_end,omitempty"`
}

// ============================================================
// Paychecks
// ============================================================

// PaycheckFrequency is how often a paycheck arrives.
type PaycheckFrequency string

const (
	FrequencyWeekly   PaycheckFrequency = "WEEKLY"
	FrequencyBiweekly PaycheckFrequency = "BIWEEKLY"
)

// Paycheck is the budgeting unit: one incoming payment and the date range
// (coverage period) it is meant to fund. totalBills, allowanceAmount and
// savingsAmount are derived totals kept consistent by the aggregate updater.
type Paycheck struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Amount          decimal.Decimal   `json:"amount"`
	PaycheckDate    time.Time         `json:"paycheck_date"`
	Frequency       PaycheckFrequency `json:"frequency"`
	CoverageStart   time.Time         `json:"coverage_start"`
	CoverageEnd     time.Time         `json:"coverage_end"`
	Month           int               `json:"month"`
	Year            int               `json:"year"`
	TotalBills      decimal.Decimal   `json:"total_bills"`
	AllowanceAmount decimal.Decimal   `json:"allowance_amount"`
	SavingsAmount   decimal.Decimal   `json:"savings_amount"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// PaycheckTotals carries the recomputed derived totals of a paycheck; the
// store writes them together with the triggering bill/allowance mutation.
type PaycheckTotals struct {
	PaycheckID      string
	TotalBills      decimal.Decimal
	AllowanceAmount decimal.Decimal
	SavingsAmount   decimal.Decimal
}

// CreatePaycheckRequest is the body for POST /v1/paychecks.
type CreatePaycheckRequest struct {
	Amount        decimal.Decimal   `json:"amount"`
	PaycheckDate  time.Time         `json:"paycheck_date"`
	Frequency     PaycheckFrequency `json:"frequency"`
	CoverageStart time.Time         `json:"coverage_start"`
	CoverageEnd   time.Time         `json:"coverage_end"`
	Notes         string            `json:"notes,omitempty"`
}

// UpdatePaycheckRequest is the body for PUT /v1/paychecks/{id}.
// Omitted fields keep their existing values.
type UpdatePaycheckRequest struct {
	Amount          *decimal.Decimal   `json:"amount,omitempty"`
	PaycheckDate    *time.Time         `json:"paycheck_date,omitempty"`
	Frequency       *PaycheckFrequency `json:"frequency,omitempty"`
	CoverageStart   *time.Time         `json:"coverage_start,omitempty"`
	CoverageEnd     *time.Time         `json:"coverage_end,omitempty"`
	AllowanceAmount *decimal.Decimal   `json:"allowance_amount,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

// MonthlyOverview aggregates a user's paychecks for one calendar month.
type MonthlyOverview struct {
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalBills     decimal.Decimal `json:"total_bills"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
	TotalSavings   decimal.Decimal `json:"total_savings"`
	// AllowanceRemaining is the summed live current balance of the month's
	// allowance trackers.
	AllowanceRemaining decimal.Decimal `json:"allowance_remaining"`
	PaycheckCount      int             `json:"paycheck_count"`
	Paychecks          []Paycheck      `json:"paychecks"`
}

// ============================================================
// Bills
// ============================================================

// Bill is a single obligation funded by one paycheck.
type Bill struct {
	ID         string          `json:"id"`
	PaycheckID string          `json:"paycheck_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateBillRequest is the body for POST /v1/bills.
type CreateBillRequest struct {
	PaycheckID string          `json:"paycheck_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
	Notes      string          `json:"notes,omitempty"`
}

// UpdateBillRequest is the body for PUT /v1/bills/{id}.
type UpdateBillRequest struct {
	Name    *string          `json:"name,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	DueDate *time.Time       `json:"due_date,omitempty"`
	Notes   *string          `json:"notes,omitempty"`
}

// ============================================================
// Trackers & transactions
// ============================================================

// TransactionType says which direction a tracker transaction moves money.
type TransactionType string

const (
	TransactionDebit  TransactionType = "DEBIT"
	TransactionCredit TransactionType = "CREDIT"
)

// Balances is the pair of running balances every tracker maintains.
// Cleared reflects all transactions (projected); Current reflects only
// transactions marked isCleared (settled).
type Balances struct {
	Current decimal.Decimal `json:"current_balance"`
	Cleared decimal.Decimal `json:"cleared_balance"`
}

// AllowanceTracker is the per-paycheck spending envelope (1:1 with Paycheck).
type AllowanceTracker struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	PaycheckID     string          `json:"paycheck_id"`
	AssignedAmount decimal.Decimal `json:"assigned_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	ClearedBalance decimal.Decimal `json:"cleared_balance"`
	Version        int64           `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AllowanceTransaction is a spend (DEBIT) or refund (CREDIT) against an
// allowance tracker.
type AllowanceTransaction struct {
	ID          string          `json:"id"`
	AllowanceID string          `json:"allowance_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	IsCleared   bool            `json:"is_cleared"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SavingsTracker is a named savings account with floating balances.
type SavingsTracker struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	AccountName    string          `json:"account_name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	ClearedBalance decimal.Decimal `json:"cleared_balance"`
	Version        int64           `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SavingsTransaction is a deposit (CREDIT) or withdrawal (DEBIT) on a
// savings tracker.
type SavingsTransaction struct {
	ID          string          `json:"id"`
	SavingsID   string          `json:"savings_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	IsCleared   bool            `json:"is_cleared"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreditCardTracker tracks a card's running balances; Limit is optional.
type CreditCardTracker struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	CardName       string           `json:"card_name"`
	Limit          *decimal.Decimal `json:"limit,omitempty"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	ClearedBalance decimal.Decimal  `json:"cleared_balance"`
	Version        int64            `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreditCardTransaction is a charge (DEBIT) or payment (CREDIT) on a card.
type CreditCardTransaction struct {
	ID                  string          `json:"id"`
	CreditCardTrackerID string          `json:"credit_card_tracker_id"`
	Type                TransactionType `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description,omitempty"`
	Date                time.Time       `json:"date"`
	IsCleared           bool            `json:"is_cleared"`
	CreatedAt           time.Time       `json:"created_at"`
}

// CreateTransactionRequest is the shared body for POST
// /v1/{tracker}/{id}/transactions.
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	IsCleared   bool            `json:"is_cleared"`
	Description string          `json:"description,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
}

// UpdateTransactionRequest is the shared body for PUT
// /v1/{tracker}/{id}/transactions/{transactionId}. Omitted fields default
// to the transaction's existing values.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	IsCleared   *bool            `json:"is_cleared,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

// UpdateAllowanceTrackerRequest changes the envelope's assigned amount,
// which triggers the full balance recompute path.
type UpdateAllowanceTrackerRequest struct {
	AssignedAmount *decimal.Decimal `json:"assigned_amount"`
}

// CreateSavingsTrackerRequest is the body for POST /v1/savings.
type CreateSavingsTrackerRequest struct {
	AccountName    string           `json:"account_name"`
	StartingAmount *decimal.Decimal `json:"starting_amount,omitempty"`
}

// UpdateSavingsTrackerRequest is the body for PUT /v1/savings/{id}.
type UpdateSavingsTrackerRequest struct {
	AccountName *string `json:"account_name,omitempty"`
}

// CreateCreditCardTrackerRequest is the body for POST /v1/credit-cards.
type CreateCreditCardTrackerRequest struct {
	CardName string           `json:"card_name"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
}

// UpdateCreditCardTrackerRequest is the body for PUT /v1/credit-cards/{cardId}.
type UpdateCreditCardTrackerRequest struct {
	CardName *string          `json:"card_name,omitempty"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
}

// CreditCardList is the list payload for GET /v1/credit-cards, including
// the totals across all of the user's cards.
type CreditCardList struct {
	Results             []CreditCardTracker `json:"results"`
	TotalBalance        decimal.Decimal     `json:"total_balance"`
	TotalClearedBalance decimal.Decimal     `json:"total_cleared_balance"`
}

// ============================================================
// Auth API types
// ============================================================

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is the body for POST /v1/auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by login, verify-otp and refresh.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the body for PUT /v1/auth/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ============================================================
// Billing API types
// ============================================================

// SubscribeRequest is the body for POST /v1/billing/subscribe.
type SubscribeRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

// AccountLinkResponse is returned by POST /v1/billing/account-link.
type AccountLinkResponse struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// StripeWebhookEvent is the slice of a Stripe event payload the webhook
// endpoint consumes. Stripe pushes subscription lifecycle changes here.
type StripeWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Customer string `json:"customer"`
			Status   string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// ============================================================
// List queries
// ============================================================

// ListQuery carries pagination and sorting for list endpoints, plus the
// per-resource equality filters parsed from the query string.
type ListQuery struct {
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
	Filters  map[string]string
}

// Offset returns the row offset for the current page.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ListMeta is the pagination metadata in list response envelopes.
type ListMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
