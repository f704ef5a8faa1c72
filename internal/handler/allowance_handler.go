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
// Allowance trackers
// ============================================================

func listAllowanceTrackersHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/allowance")
		defer span.End()

		q := parseListQuery(r)
		trackers, total, err := svc.ListTrackers(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "allowance trackers retrieved", trackers, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func latestAllowanceTrackerHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/allowance/latest")
		defer span.End()

		t, err := svc.GetLatestTracker(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "latest allowance tracker retrieved", t)
	}
}

func getAllowanceTrackerHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/allowance/{allowanceId}")
		defer span.End()

		t, err := svc.GetTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "allowanceId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance tracker retrieved", t)
	}
}

func updateAllowanceTrackerHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/allowance/{allowanceId}")
		defer span.End()

		var req domain.UpdateAllowanceTrackerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := svc.UpdateTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "allowanceId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance tracker updated", t)
	}
}

// ============================================================
// Allowance transactions
// ============================================================

func listAllowanceTxnsHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/allowance/{allowanceId}/transactions")
		defer span.End()

		txns, err := svc.ListTransactions(ctx, UserIDFromContext(ctx), chi.URLParam(r, "allowanceId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance transactions retrieved", txns)
	}
}

func getAllowanceTxnHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/allowance/{allowanceId}/transactions/{transactionId}")
		defer span.End()

		txn, err := svc.GetTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "allowanceId"), chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance transaction retrieved", txn)
	}
}

func createAllowanceTxnHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/allowance/{allowanceId}/transactions")
		defer span.End()

		var req domain.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.AddTransaction(ctx, UserIDFromContext(ctx), chi.URLParam(r, "allowanceId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "allowance transaction created", txn)
	}
}

func updateAllowanceTxnHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/allowance/{allowanceId}/transactions/{transactionId}")
		defer span.End()

		var req domain.UpdateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.UpdateTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "allowanceId"), chi.URLParam(r, "transactionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance transaction updated", txn)
	}
}

func deleteAllowanceTxnHandler(svc *service.AllowanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/allowance/{allowanceId}/transactions/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "allowanceId"), chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "allowance transaction deleted", nil)
	}
}
