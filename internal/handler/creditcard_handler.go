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
// Credit card trackers
// ============================================================

func createCardTrackerHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credit-cards")
		defer span.End()

		var req domain.CreateCreditCardTrackerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := svc.CreateTracker(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "credit card tracker created", t)
	}
}

func listCardTrackersHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-cards")
		defer span.End()

		q := parseListQuery(r)
		list, total, err := svc.ListTrackers(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "credit card trackers retrieved", list, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func getCardTrackerHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-cards/{cardId}")
		defer span.End()

		t, err := svc.GetTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "cardId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card tracker retrieved", t)
	}
}

func updateCardTrackerHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/credit-cards/{cardId}")
		defer span.End()

		var req domain.UpdateCreditCardTrackerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		t, err := svc.UpdateTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "cardId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card tracker updated", t)
	}
}

func deleteCardTrackerHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/credit-cards/{cardId}")
		defer span.End()

		if err := svc.DeleteTracker(ctx, UserIDFromContext(ctx), chi.URLParam(r, "cardId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card tracker deleted", nil)
	}
}

// ============================================================
// Credit card transactions
// ============================================================

func listAllCardTxnsHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-cards/transactions")
		defer span.End()

		q := parseListQuery(r)
		txns, total, err := svc.ListAllTransactions(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "credit card transactions retrieved", txns, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func listCardTxnsHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-cards/{cardId}/transactions")
		defer span.End()

		txns, err := svc.ListTransactions(ctx, UserIDFromContext(ctx), chi.URLParam(r, "cardId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card transactions retrieved", txns)
	}
}

func getCardTxnHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-cards/{cardId}/transactions/{transactionId}")
		defer span.End()

		txn, err := svc.GetTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "cardId"), chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "card transaction retrieved", txn)
	}
}

func createCardTxnHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credit-cards/{cardId}/transactions")
		defer span.End()

		var req domain.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.AddTransaction(ctx, UserIDFromContext(ctx), chi.URLParam(r, "cardId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "credit card transaction created", txn)
	}
}

func updateCardTxnHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/credit-cards/{cardId}/transactions/{transactionId}")
		defer span.End()

		var req domain.UpdateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		txn, err := svc.UpdateTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "cardId"), chi.URLParam(r, "transactionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card transaction updated", txn)
	}
}

func deleteCardTxnHandler(svc *service.CreditCardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/credit-cards/{cardId}/transactions/{transactionId}")
		defer span.End()

		if err := svc.DeleteTransaction(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "cardId"), chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "credit card transaction deleted", nil)
	}
}
