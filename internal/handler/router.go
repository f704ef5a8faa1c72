package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports backend connectivity; satisfied by the Postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router needs.
type Services struct {
	Paychecks   *service.PaycheckService
	Bills       *service.BillService
	Allowances  *service.AllowanceService
	Savings     *service.SavingsService
	CreditCards *service.CreditCardService
	Auth        *service.AuthService
	Billing     *service.BillingService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, db Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.HTTPMetricsMiddleware(metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(db))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Authentication (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/verify-otp", authVerifyOTPHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, logger))
				r.Put("/password", authChangePasswordHandler(svcs.Auth, logger))
			})
		})

		// Stripe pushes subscription events here; no bearer token on the
		// request, Stripe authenticates the delivery itself.
		r.Post("/billing/webhook", billingWebhookHandler(svcs.Billing, logger))

		// =============================================
		// Everything below requires a valid access token
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// Paychecks
			r.Post("/paychecks", createPaycheckHandler(svcs.Paychecks, logger))
			r.Get("/paychecks", listPaychecksHandler(svcs.Paychecks, logger))
			r.Get("/paychecks/latest", latestPaycheckHandler(svcs.Paychecks, logger))
			r.Get("/paychecks/monthly-overview", monthlyOverviewHandler(svcs.Paychecks, logger))
			r.Get("/paychecks/{paycheckId}", getPaycheckHandler(svcs.Paychecks, logger))
			r.Put("/paychecks/{paycheckId}", updatePaycheckHandler(svcs.Paychecks, logger))
			r.Delete("/paychecks/{paycheckId}", deletePaycheckHandler(svcs.Paychecks, logger))

			// Bills
			r.Post("/bills", createBillHandler(svcs.Bills, logger))
			r.Get("/bills", listBillsHandler(svcs.Bills, logger))
			r.Get("/bills/{billId}", getBillHandler(svcs.Bills, logger))
			r.Put("/bills/{billId}", updateBillHandler(svcs.Bills, logger))
			r.Delete("/bills/{billId}", deleteBillHandler(svcs.Bills, logger))

			// Allowance trackers
			r.Get("/allowance", listAllowanceTrackersHandler(svcs.Allowances, logger))
			r.Get("/allowance/latest", latestAllowanceTrackerHandler(svcs.Allowances, logger))
			r.Get("/allowance/{allowanceId}", getAllowanceTrackerHandler(svcs.Allowances, logger))
			r.Put("/allowance/{allowanceId}", updateAllowanceTrackerHandler(svcs.Allowances, logger))
			r.Get("/allowance/{allowanceId}/transactions", listAllowanceTxnsHandler(svcs.Allowances, logger))
			r.Post("/allowance/{allowanceId}/transactions", createAllowanceTxnHandler(svcs.Allowances, logger))
			r.Get("/allowance/{allowanceId}/transactions/{transactionId}", getAllowanceTxnHandler(svcs.Allowances, logger))
			r.Put("/allowance/{allowanceId}/transactions/{transactionId}", updateAllowanceTxnHandler(svcs.Allowances, logger))
			r.Delete("/allowance/{allowanceId}/transactions/{transactionId}", deleteAllowanceTxnHandler(svcs.Allowances, logger))

			// Savings trackers
			r.Post("/savings", createSavingsTrackerHandler(svcs.Savings, logger))
			r.Get("/savings", listSavingsTrackersHandler(svcs.Savings, logger))
			r.Get("/savings/transactions", listAllSavingsTxnsHandler(svcs.Savings, logger))
			r.Get("/savings/{savingsId}", getSavingsTrackerHandler(svcs.Savings, logger))
			r.Put("/savings/{savingsId}", updateSavingsTrackerHandler(svcs.Savings, logger))
			r.Delete("/savings/{savingsId}", deleteSavingsTrackerHandler(svcs.Savings, logger))
			r.Get("/savings/{savingsId}/transactions", listSavingsTxnsHandler(svcs.Savings, logger))
			r.Post("/savings/{savingsId}/transactions", createSavingsTxnHandler(svcs.Savings, logger))
			r.Get("/savings/{savingsId}/transactions/{transactionId}", getSavingsTxnHandler(svcs.Savings, logger))
			r.Put("/savings/{savingsId}/transactions/{transactionId}", updateSavingsTxnHandler(svcs.Savings, logger))
			r.Delete("/savings/{savingsId}/transactions/{transactionId}", deleteSavingsTxnHandler(svcs.Savings, logger))

			// Credit card trackers
			r.Post("/credit-cards", createCardTrackerHandler(svcs.CreditCards, logger))
			r.Get("/credit-cards", listCardTrackersHandler(svcs.CreditCards, logger))
			r.Get("/credit-cards/transactions", listAllCardTxnsHandler(svcs.CreditCards, logger))
			r.Get("/credit-cards/{cardId}", getCardTrackerHandler(svcs.CreditCards, logger))
			r.Put("/credit-cards/{cardId}", updateCardTrackerHandler(svcs.CreditCards, logger))
			r.Delete("/credit-cards/{cardId}", deleteCardTrackerHandler(svcs.CreditCards, logger))
			r.Get("/credit-cards/{cardId}/transactions", listCardTxnsHandler(svcs.CreditCards, logger))
			r.Post("/credit-cards/{cardId}/transactions", createCardTxnHandler(svcs.CreditCards, logger))
			r.Get("/credit-cards/{cardId}/transactions/{transactionId}", getCardTxnHandler(svcs.CreditCards, logger))
			r.Put("/credit-cards/{cardId}/transactions/{transactionId}", updateCardTxnHandler(svcs.CreditCards, logger))
			r.Delete("/credit-cards/{cardId}/transactions/{transactionId}", deleteCardTxnHandler(svcs.CreditCards, logger))

			// Billing
			r.Post("/billing/subscribe", billingSubscribeHandler(svcs.Billing, logger))
			r.Post("/billing/cancel", billingCancelHandler(svcs.Billing, logger))
			r.Get("/billing/subscription", billingGetSubscriptionHandler(svcs.Billing, logger))
			r.Post("/billing/account-link", billingAccountLinkHandler(svcs.Billing, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, "ok", map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func readyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeSuccess(w, http.StatusOK, "ready", nil)
	}
}
