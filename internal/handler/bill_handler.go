package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

// ============================================================
// Bills
// ============================================================

func createBillHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills")
		defer span.End()

		var req domain.CreateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		b, err := svc.CreateBill(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "bill created", b)
	}
}

func listBillsHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bills")
		defer span.End()

		q := parseListQuery(r, "paycheck_id")
		bills, total, err := svc.ListBills(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "bills retrieved", bills, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func getBillHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bills/{billId}")
		defer span.End()

		b, err := svc.GetBill(ctx, UserIDFromContext(ctx), chi.URLParam(r, "billId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "bill retrieved", b)
	}
}

func updateBillHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/bills/{billId}")
		defer span.End()

		var req domain.UpdateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		b, err := svc.UpdateBill(ctx, UserIDFromContext(ctx), chi.URLParam(r, "billId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "bill updated", b)
	}
}

func deleteBillHandler(svc *service.BillService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/bills/{billId}")
		defer span.End()

		if err := svc.DeleteBill(ctx, UserIDFromContext(ctx), chi.URLParam(r, "billId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "bill deleted", nil)
	}
}
