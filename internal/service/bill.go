package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/port"
)

var billTracer = otel.Tracer("service/bill")

// BillService manages bills. Every mutation recomputes the owning
// paycheck's totals from the full bill set and hands them to the store,
// which writes both in one atomic unit.
type BillService struct {
	store     port.BillStore
	paychecks port.PaycheckStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewBillService creates a new bill service.
func NewBillService(store port.BillStore, paychecks port.PaycheckStore, metrics *observability.Metrics, logger *zap.Logger) *BillService {
	return &BillService{store: store, paychecks: paychecks, metrics: metrics, logger: logger}
}

// getOwnedBill resolves a bill and its paycheck, verifying ownership
// through the paycheck before anything else happens.
func (s *BillService) getOwnedBill(ctx context.Context, userID, billID string) (*domain.Bill, *domain.Paycheck, error) {
	b, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.paychecks.GetPaycheck(ctx, b.PaycheckID)
	if err != nil {
		return nil, nil, err
	}
	if p.UserID != userID {
		return nil, nil, &domain.ErrForbidden{Resource: "bill", ID: billID}
	}
	return b, p, nil
}

func validateDueDate(p *domain.Paycheck, name string, due time.Time) error {
	if due.Before(p.CoverageStart) || due.After(p.CoverageEnd) {
		return &domain.ErrInvalidDueDate{BillName: name, Reason: "outside the paycheck's coverage period"}
	}
	if due.Before(p.PaycheckDate) {
		return &domain.ErrInvalidDueDate{BillName: name, Reason: "before the paycheck date"}
	}
	return nil
}

// recomputeTotals re-derives the paycheck totals from a bill set; the
// triggering bill is adjusted by the caller before passing bills in.
func recomputeTotals(p *domain.Paycheck, bills []domain.Bill) (domain.PaycheckTotals, error) {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.Amount)
	}
	if total.Add(p.AllowanceAmount).GreaterThan(p.Amount) {
		return domain.PaycheckTotals{}, &domain.ErrBudgetExceeded{PaycheckID: p.ID}
	}
	return domain.PaycheckTotals{
		PaycheckID:      p.ID,
		TotalBills:      total,
		AllowanceAmount: p.AllowanceAmount,
		SavingsAmount:   p.Amount.Sub(total).Sub(p.AllowanceAmount),
	}, nil
}

func (s *BillService) CreateBill(ctx context.Context, userID string, req *domain.CreateBillRequest) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.String("paycheck.id", req.PaycheckID))

	p, err := s.paychecks.GetPaycheck(ctx, req.PaycheckID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, &domain.ErrForbidden{Resource: "paycheck", ID: req.PaycheckID}
	}

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if err := validateDueDate(p, req.Name, req.DueDate); err != nil {
		return nil, err
	}

	existing, err := s.store.ListBillsByPaycheck(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bill := &domain.Bill{
		ID:         uuid.New().String(),
		PaycheckID: p.ID,
		Name:       req.Name,
		Amount:     req.Amount,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	totals, err := recomputeTotals(p, append(existing, *bill))
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBill(ctx, bill, totals); err != nil {
		s.logger.Error("failed to create bill", zap.String("paycheck_id", p.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("bill created",
		zap.String("bill_id", bill.ID),
		zap.String("paycheck_id", p.ID),
		zap.String("amount", bill.Amount.String()),
	)
	return bill, nil
}

func (s *BillService) ListBills(ctx context.Context, userID string, q domain.ListQuery) ([]domain.Bill, int, error) {
	ctx, span := billTracer.Start(ctx, "BillService.ListBills")
	defer span.End()

	return s.store.ListBills(ctx, userID, q)
}

func (s *BillService) GetBill(ctx context.Context, userID, id string) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.GetBill")
	defer span.End()

	b, _, err := s.getOwnedBill(ctx, userID, id)
	return b, err
}

func (s *BillService) UpdateBill(ctx context.Context, userID, id string, req *domain.UpdateBillRequest) (*domain.Bill, error) {
	ctx, span := billTracer.Start(ctx, "BillService.UpdateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", id))

	b, p, err := s.getOwnedBill(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
		}
		b.Name = *req.Name
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
		}
		b.Amount = *req.Amount
	}
	if req.DueDate != nil {
		b.DueDate = *req.DueDate
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
	if err := validateDueDate(p, b.Name, b.DueDate); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now().UTC()

	bills, err := s.store.ListBillsByPaycheck(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		if bills[i].ID == b.ID {
			bills[i] = *b
		}
	}

	totals, err := recomputeTotals(p, bills)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateBill(ctx, b, totals); err != nil {
		s.logger.Error("failed to update bill", zap.String("bill_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("bill updated", zap.String("bill_id", id))
	return b, nil
}

func (s *BillService) DeleteBill(ctx context.Context, userID, id string) error {
	ctx, span := billTracer.Start(ctx, "BillService.DeleteBill")
	defer span.End()

	b, p, err := s.getOwnedBill(ctx, userID, id)
	if err != nil {
		return err
	}

	bills, err := s.store.ListBillsByPaycheck(ctx, p.ID)
	if err != nil {
		return err
	}
	remaining := bills[:0]
	for _, other := range bills {
		if other.ID != b.ID {
			remaining = append(remaining, other)
		}
	}

	totals, err := recomputeTotals(p, remaining)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBill(ctx, b.ID, totals); err != nil {
		s.logger.Error("failed to delete bill", zap.String("bill_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("bill deleted", zap.String("bill_id", id))
	return nil
}
