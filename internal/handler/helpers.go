package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    any              `json:"data,omitempty"`
	Meta    *domain.ListMeta `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeList(w http.ResponseWriter, message string, data any, meta domain.ListMeta) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data, Meta: &meta})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// parseListQuery extracts pagination and sorting from the query string.
// filterKeys lists the equality filters the endpoint accepts.
func parseListQuery(r *http.Request, filterKeys ...string) domain.ListQuery {
	q := domain.ListQuery{Page: 1, Limit: 20}
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			q.Page = p
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			q.Limit = l
		}
	}
	q.SortBy = r.URL.Query().Get("sort_by")
	q.SortDesc = r.URL.Query().Get("order") == "desc"
	for _, key := range filterKeys {
		if v := r.URL.Query().Get(key); v != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[key] = v
		}
	}
	return q
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var validation *domain.ErrValidation
	var insufficientBalance *domain.ErrInsufficientBalance
	var budgetExceeded *domain.ErrBudgetExceeded
	var allowanceBelowSpent *domain.ErrAllowanceBelowSpent
	var invalidDueDate *domain.ErrInvalidDueDate
	var overlappingCoverage *domain.ErrOverlappingCoverage
	var conflict *domain.ErrConflict
	var invalidCode *domain.ErrInvalidCode
	var circuitOpen *domain.ErrCircuitOpen
	var externalService *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficientBalance):
		logger.Debug("insufficient balance",
			zap.String("tracker", insufficientBalance.Tracker),
			zap.String("balance", insufficientBalance.Balance),
		)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &budgetExceeded):
		logger.Debug("budget exceeded", zap.String("paycheck_id", budgetExceeded.PaycheckID))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &allowanceBelowSpent):
		logger.Debug("assigned below spent", zap.String("allowance_id", allowanceBelowSpent.AllowanceID))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidDueDate):
		logger.Debug("invalid due date", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &overlappingCoverage):
		logger.Debug("overlapping coverage period", zap.String("existing_id", overlappingCoverage.ExistingID))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalidCode):
		logger.Warn("invalid verification code")
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &externalService):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream service error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
