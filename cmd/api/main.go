package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/dispensary-pos/api/routes"
	"github.com/angelmondragon/dispensary-pos/internal/auth"
	"github.com/angelmondragon/dispensary-pos/internal/categories"
	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/internal/invoices"
	"github.com/angelmondragon/dispensary-pos/internal/members"
	"github.com/angelmondragon/dispensary-pos/internal/orders"
	"github.com/angelmondragon/dispensary-pos/internal/reports"
	"github.com/angelmondragon/dispensary-pos/internal/settings"
	"github.com/angelmondragon/dispensary-pos/internal/stock"
	"github.com/angelmondragon/dispensary-pos/internal/transactions"
	"github.com/angelmondragon/dispensary-pos/internal/users"
	"github.com/angelmondragon/dispensary-pos/pkg/auth/session"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/mailer"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
	"github.com/angelmondragon/dispensary-pos/pkg/migrate"
	"github.com/angelmondragon/dispensary-pos/pkg/redis"
	"github.com/angelmondragon/dispensary-pos/pkg/textgen"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager, posMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"mailer":  cfg.Mailer.Enabled(),
		"textgen": cfg.TextGen.Enabled(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			posMetrics,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			svcs.auth,
			svcs.users,
			svcs.members,
			svcs.categories,
			svcs.inventory,
			svcs.orders,
			svcs.transactions,
			svcs.invoices,
			svcs.reports,
			svcs.settings,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

type services struct {
	auth         auth.Service
	users        users.Service
	members      members.Service
	categories   categories.Service
	inventory    inventory.Service
	orders       orders.Service
	transactions transactions.Service
	invoices     invoices.Service
	reports      reports.Service
	settings     settings.Service
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, posMetrics *metrics.POSMetrics) (*services, error) {
	conn := dbClient.DB()
	ledger := stock.NewLedger(posMetrics)
	catalog := inventory.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	out := &services{}
	var err error

	if out.settings, err = settings.NewService(settings.NewRepository(conn), cfg.Sales); err != nil {
		return nil, err
	}
	if out.members, err = members.NewService(members.NewRepository(conn)); err != nil {
		return nil, err
	}
	if out.categories, err = categories.NewService(categories.NewRepository(conn), dbClient); err != nil {
		return nil, err
	}
	if out.inventory, err = inventory.NewService(catalog, cfg.Sales.LowStockDefault); err != nil {
		return nil, err
	}
	if out.orders, err = orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(conn),
		Ledger:  ledger,
		Members: out.members,
		Catalog: catalog,
		Tx:      dbClient,
		Metrics: posMetrics,
		Logger:  logg,
	}); err != nil {
		return nil, err
	}
	if out.transactions, err = transactions.NewService(transactions.ServiceParams{
		Repo:     transactions.NewRepository(conn),
		Stock:    ledger,
		Members:  out.members,
		Catalog:  catalog,
		Settings: out.settings,
		Tx:       dbClient,
		Metrics:  posMetrics,
	}); err != nil {
		return nil, err
	}

	invoiceParams := invoices.ServiceParams{
		Repo:     invoices.NewRepository(conn),
		Orders:   out.orders,
		Ledger:   ledger,
		Members:  out.members,
		Catalog:  catalog,
		Settings: out.settings,
		Tx:       dbClient,
		Logger:   logg,
	}
	if cfg.Mailer.Enabled() {
		client, err := mailer.NewClient(cfg.Mailer.RelayURL, cfg.Mailer.DefaultFrom,
			mailer.WithAPIKey(cfg.Mailer.APIKey),
			mailer.WithTimeout(cfg.Mailer.Timeout),
		)
		if err != nil {
			return nil, err
		}
		invoiceParams.Mailer = client
	}
	if out.invoices, err = invoices.NewService(invoiceParams); err != nil {
		return nil, err
	}

	var generator reports.TextGenerator
	if cfg.TextGen.Enabled() {
		client, err := textgen.NewClient(cfg.TextGen.Endpoint,
			textgen.WithAPIKey(cfg.TextGen.APIKey),
			textgen.WithModel(cfg.TextGen.Model),
			textgen.WithTimeout(cfg.TextGen.Timeout),
		)
		if err != nil {
			return nil, err
		}
		generator = client
	}
	if out.reports, err = reports.NewService(reports.NewRepository(conn), generator, cfg.Sales.ReportTopItemCap); err != nil {
		return nil, err
	}

	if out.users, err = users.NewService(userRepo, cfg.Password); err != nil {
		return nil, err
	}
	if out.auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}); err != nil {
		return nil, err
	}
	return out, nil
}
