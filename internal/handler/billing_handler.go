package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

// ============================================================
// Billing (Stripe subscriptions)
// ============================================================

func billingSubscribeHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/billing/subscribe")
		defer span.End()

		var req domain.SubscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub, err := svc.Subscribe(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "subscription created", sub)
	}
}

func billingCancelHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/billing/cancel")
		defer span.End()

		sub, err := svc.Cancel(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "subscription canceled", sub)
	}
}

func billingGetSubscriptionHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/billing/subscription")
		defer span.End()

		sub, err := svc.GetSubscription(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "subscription retrieved", sub)
	}
}

func billingWebhookHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/billing/webhook")
		defer span.End()

		var event domain.StripeWebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.HandleWebhookEvent(ctx, &event); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "webhook processed", nil)
	}
}

func billingAccountLinkHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/billing/account-link")
		defer span.End()

		link, err := svc.AccountLink(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "account link created", link)
	}
}
