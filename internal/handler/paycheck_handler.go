package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

// ============================================================
// Paychecks
// ============================================================

func createPaycheckHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/paychecks")
		defer span.End()

		var req domain.CreatePaycheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := svc.CreatePaycheck(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, "paycheck created", p)
	}
}

func listPaychecksHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/paychecks")
		defer span.End()

		q := parseListQuery(r)
		paychecks, total, err := svc.ListPaychecks(ctx, UserIDFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, "paychecks retrieved", paychecks, domain.ListMeta{Page: q.Page, Limit: q.Limit, Total: total})
	}
}

func latestPaycheckHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/paychecks/latest")
		defer span.End()

		p, err := svc.GetLatestPaycheck(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "latest paycheck retrieved", p)
	}
}

func monthlyOverviewHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/paychecks/monthly-overview")
		defer span.End()

		now := time.Now().UTC()
		month, year := int(now.Month()), now.Year()
		if v := r.URL.Query().Get("month"); v != "" {
			if m, err := strconv.Atoi(v); err == nil {
				month = m
			}
		}
		if v := r.URL.Query().Get("year"); v != "" {
			if y, err := strconv.Atoi(v); err == nil {
				year = y
			}
		}

		ov, err := svc.MonthlyOverview(ctx, UserIDFromContext(ctx), month, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "monthly overview retrieved", ov)
	}
}

func getPaycheckHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/paychecks/{paycheckId}")
		defer span.End()

		p, err := svc.GetPaycheck(ctx, UserIDFromContext(ctx), chi.URLParam(r, "paycheckId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "paycheck retrieved", p)
	}
}

func updatePaycheckHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/paychecks/{paycheckId}")
		defer span.End()

		var req domain.UpdatePaycheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := svc.UpdatePaycheck(ctx, UserIDFromContext(ctx), chi.URLParam(r, "paycheckId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "paycheck updated", p)
	}
}

func deletePaycheckHandler(svc *service.PaycheckService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/paychecks/{paycheckId}")
		defer span.End()

		if err := svc.DeletePaycheck(ctx, UserIDFromContext(ctx), chi.URLParam(r, "paycheckId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, "paycheck deleted", nil)
	}
}
