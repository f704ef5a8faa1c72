package port

import (
	"context"
	"time"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

// PaycheckStore handles paycheck data operations.
type PaycheckStore interface {
	CreatePaycheck(ctx context.Context, p *domain.Paycheck) error
	ListPaychecks(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Paycheck, int, error)
	ListPaychecksByMonth(ctx context.Context, userID string, month, year int) ([]domain.Paycheck, error)
	GetPaycheck(ctx context.Context, id string) (*domain.Paycheck, error)
	GetLatestPaycheck(ctx context.Context, userID string) (*domain.Paycheck, error)
	// FindOverlappingPaycheck returns a paycheck of the user whose coverage
	// period intersects [start, end], excluding excludeID (empty to match
	// all). Returns nil when there is no overlap.
	FindOverlappingPaycheck(ctx context.Context, userID string, start, end time.Time, excludeID string) (*domain.Paycheck, error)
	UpdatePaycheck(ctx context.Context, p *domain.Paycheck) error
	// DeletePaycheck removes the paycheck and cascades to its bills, its
	// allowance tracker and that tracker's transactions.
	DeletePaycheck(ctx context.Context, id string) error
}

// BillStore handles bill data operations. Mutations take the recomputed
// paycheck totals and must apply both writes in one atomic unit.
type BillStore interface {
	CreateBill(ctx context.Context, b *domain.Bill, totals domain.PaycheckTotals) error
	ListBills(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Bill, int, error)
	ListBillsByPaycheck(ctx context.Context, paycheckID string) ([]domain.Bill, error)
	GetBill(ctx context.Context, id string) (*domain.Bill, error)
	UpdateBill(ctx context.Context, b *domain.Bill, totals domain.PaycheckTotals) error
	DeleteBill(ctx context.Context, id string, totals domain.PaycheckTotals) error
}
