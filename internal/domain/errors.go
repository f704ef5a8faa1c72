package domain

import "fmt"

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrForbidden indicates the acting user does not own the resource.
type ErrForbidden struct {
	Resource string
	ID       string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s %s belongs to another user", e.Resource, e.ID)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInsufficientBalance indicates a tracker balance would go negative.
type ErrInsufficientBalance struct {
	Tracker string
	Balance string // "current" or "cleared"
}

func (e *ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: %s balance of %s tracker would go negative", e.Balance, e.Tracker)
}

// ErrBudgetExceeded indicates bills + allowance would exceed the paycheck
// amount.
type ErrBudgetExceeded struct {
	PaycheckID string
}

func (e *ErrBudgetExceeded) Error() string {
	return fmt.Sprintf("budget exceeded: bills plus allowance exceed paycheck %s amount", e.PaycheckID)
}

// ErrAllowanceBelowSpent indicates a new assigned amount is lower than what
// has already been spent.
type ErrAllowanceBelowSpent struct {
	AllowanceID string
}

func (e *ErrAllowanceBelowSpent) Error() string {
	return fmt.Sprintf("assigned amount below total already spent on allowance %s", e.AllowanceID)
}

// ErrInvalidDueDate indicates a bill due date outside the paycheck's
// coverage period or before the paycheck date.
type ErrInvalidDueDate struct {
	BillName string
	Reason   string
}

func (e *ErrInvalidDueDate) Error() string {
	return fmt.Sprintf("invalid due date for bill '%s': %s", e.BillName, e.Reason)
}

// ErrOverlappingCoverage indicates the coverage period collides with an
// existing paycheck of the same user.
type ErrOverlappingCoverage struct {
	ExistingID string
}

func (e *ErrOverlappingCoverage) Error() string {
	return fmt.Sprintf("overlapping coverage period with paycheck %s", e.ExistingID)
}

// ErrConflict indicates a concurrent-update or uniqueness conflict.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrInvalidCode indicates an invalid or expired verification code.
type ErrInvalidCode struct{}

func (e *ErrInvalidCode) Error() string {
	return "invalid or expired verification code"
}
