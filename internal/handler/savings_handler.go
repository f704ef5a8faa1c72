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
// Savings trackers
// ============================================================

func createSavingsTrackerHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/savings")
		defer span.End()

		var req domain.CreateSavingsTrackerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := svc.CreateTracker(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "savings tracker created", t)
	}
}

func listSavingsTrackersHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/savings")
		defer span.End()

		q := parseListQuery(r)
		trackers, total, err := svc.ListTrackers(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "savings trackers retrieved", trackers, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func getSavingsTrackerHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/savings/{savingsId}")
		defer span.End()

		t, err := svc.GetTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "savingsId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings tracker retrieved", t)
	}
}

func updateSavingsTrackerHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/savings/{savingsId}")
		defer span.End()

		var req domain.UpdateSavingsTrackerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := svc.UpdateTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "savingsId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings tracker updated", t)
	}
}

func deleteSavingsTrackerHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/savings/{savingsId}")
		defer span.End()

		if err := svc.DeleteTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "savingsId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings tracker deleted", nil)
	}
}

// ============================================================
// Savings transactions
// ============================================================

func listAllSavingsTxnsHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/savings/transactions")
		defer span.End()

		q := parseListQuery(r)
		txns, total, err := svc.ListAllTransactions(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "savings transactions retrieved", txns, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func listSavingsTxnsHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/savings/{savingsId}/transactions")
		defer span.End()

		txns, err := svc.ListTransactions(ctx, UserIDFromContext(ctx), chi.URLParam(r, "savingsId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings transactions retrieved", txns)
	}
}

func getSavingsTxnHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/savings/{savingsId}/transactions/{transactionId}")
		defer span.End()

		txn, err := svc.GetTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "savingsId"), chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings transaction retrieved", txn)
	}
}

func createSavingsTxnHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/savings/{savingsId}/transactions")
		defer span.End()

		var req domain.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.AddTransaction(ctx, UserIDFromContext(ctx), chi.URLParam(r, "savingsId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "savings transaction created", txn)
	}
}

func updateSavingsTxnHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/savings/{savingsId}/transactions/{transactionId}")
		defer span.End()

		var req domain.UpdateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.UpdateTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "savingsId"), chi.URLParam(r, "transactionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings transaction updated", txn)
	}
}

func deleteSavingsTxnHandler(svc *service.SavingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/savings/{savingsId}/transactions/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "savingsId"), chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "savings transaction deleted", nil)
	}
}
