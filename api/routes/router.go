package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/dispensary-pos/api/controllers"
	ordercontrollers "github.com/angelmondragon/dispensary-pos/api/controllers/orders"
	"github.com/angelmondragon/dispensary-pos/api/middleware"
	"github.com/angelmondragon/dispensary-pos/internal/auth"
	"github.com/angelmondragon/dispensary-pos/internal/categories"
	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/internal/invoices"
	"github.com/angelmondragon/dispensary-pos/internal/members"
	"github.com/angelmondragon/dispensary-pos/internal/orders"
	"github.com/angelmondragon/dispensary-pos/internal/reports"
	"github.com/angelmondragon/dispensary-pos/internal/settings"
	"github.com/angelmondragon/dispensary-pos/internal/transactions"
	"github.com/angelmondragon/dispensary-pos/internal/users"
	"github.com/angelmondragon/dispensary-pos/pkg/auth/session"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
	"github.com/angelmondragon/dispensary-pos/pkg/redis"
)

// Store is the Redis surface the router needs: readiness, login throttling
// and idempotency replay.
type Store interface {
	db.Pinger
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store Store,
	sessions session.AccessSessionChecker,
	posMetrics *metrics.POSMetrics,
	metricsHandler http.Handler,
	authService auth.Service,
	userService users.Service,
	memberService members.Service,
	categoryService categories.Service,
	inventoryService inventory.Service,
	ordersService orders.Service,
	transactionService transactions.Service,
	invoiceService invoices.Service,
	reportService reports.Service,
	settingsService settings.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, posMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, store))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(authService, logg))
	})
	// Refresh carries an expired access token, so it sits outside Auth.
	r.Post("/api/sessions/refresh", controllers.SessionRefresh(authService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(enums.AdminRoleDealer, logg))
		r.Use(middleware.Idempotency(store, logg))

		admin := middleware.RequireRole(enums.AdminRoleAdmin, logg)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", controllers.SessionCurrent())
			r.Delete("/", controllers.SessionLogout(authService, logg))
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.MemberList(memberService, logg))
			r.Post("/", controllers.MemberCreate(memberService, logg))
			r.Get("/card/{cardNumber}", controllers.MemberByCard(memberService, logg))
			r.Get("/{uid}", controllers.MemberGet(memberService, logg))
			r.Patch("/{uid}", controllers.MemberUpdate(memberService, logg))
			r.Delete("/{uid}", controllers.MemberDelete(memberService, logg))
		})

		r.Route("/tiers", func(r chi.Router) {
			r.Get("/", controllers.TierList(memberService, logg))
			r.With(admin).Put("/{name}", controllers.TierUpsert(memberService, logg))
			r.With(admin).Delete("/{name}", controllers.TierDelete(memberService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(categoryService, logg))
			r.With(admin).Post("/", controllers.CategoryCreate(categoryService, logg))
			r.With(admin).Patch("/{id}", controllers.CategoryRename(categoryService, logg))
			r.With(admin).Delete("/{id}", controllers.CategoryDelete(categoryService, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(inventoryService, logg))
			r.Get("/{id}", controllers.InventoryGet(inventoryService, logg))
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", controllers.InventoryCreate(inventoryService, logg))
				r.Patch("/{id}", controllers.InventoryUpdate(inventoryService, logg))
				r.Delete("/{id}", controllers.InventoryDelete(inventoryService, logg))
				r.Put("/{id}/stock", controllers.InventoryAdjustStock(inventoryService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Post("/bulk-fulfill", ordercontrollers.BulkFulfill(ordersService, logg))
			r.Get("/{id}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/{id}/fulfill", ordercontrollers.Fulfill(ordersService, logg))
			r.Post("/{id}/cancel", ordercontrollers.Cancel(ordersService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(transactionService, logg))
			r.Post("/", controllers.TransactionCreate(transactionService, logg))
			r.Post("/quote", controllers.TransactionQuote(transactionService, logg))
			r.Get("/{id}", controllers.TransactionGet(transactionService, logg))
			r.With(admin).Delete("/{id}", controllers.TransactionDelete(transactionService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(invoiceService, logg))
			r.Post("/", controllers.InvoiceCreate(invoiceService, logg))
			r.Get("/{id}", controllers.InvoiceGet(invoiceService, logg))
			r.Post("/{id}/paid", controllers.InvoiceMarkPaid(invoiceService, logg))
			r.Post("/{id}/void", controllers.InvoiceVoid(invoiceService, logg))
		})
		r.Post("/send-invoice", controllers.InvoiceSend(invoiceService, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Use(admin)
			r.Get("/sales", controllers.ReportSales(reportService, logg))
			r.Get("/narrative", controllers.ReportNarrative(reportService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(settingsService, logg))
			r.With(admin).Put("/", controllers.SettingsUpdate(settingsService, logg))
		})

		r.With(admin).Post("/admin-users", controllers.AdminUserCreate(userService, logg))
	})

	return r
}
