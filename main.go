package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	appcoupon "github.com/Zhima-Mochi/minishop-storefront/internal/application/coupon"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	catalogcache "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/catalog"
	httptransport "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/http"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/invoice"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/mail"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/notification"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "storefront")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("ADDR", ":8080")

	baseLogger := zaplogger.New(
		observability.F("service", serviceName),
		observability.F("env", env),
	)
	if s, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	metricsRegistry := prometrics.New("", "")
	tel := telemetry.New(
		oteltrace.New(serviceName),
		baseLogger,
		buildCounters(metricsRegistry),
		buildHistograms(metricsRegistry),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogRepo, cartRepo, orderRepo, cleanup, err := buildRepositories(ctx, baseLogger)
	if err != nil {
		baseLogger.Error("storage_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	couponRepo := memory.NewCouponRepository()
	userDirectory := memory.NewUserDirectory()
	idGenerator := id.NewUUIDGenerator()

	bus := outbox.NewBus(baseLogger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	cachedCatalog := catalogcache.NewCachedRepository(catalogRepo)

	ledger := appinventory.NewLedger(cachedCatalog, tel)
	catalogService := appcatalog.NewService(cachedCatalog)
	cartService := appcart.NewService(cartRepo, cachedCatalog, idGenerator, tel)
	couponService := appcoupon.NewService(couponRepo)
	invoiceGenerator := invoice.NewGenerator(orderRepo)

	placeOrder := apporder.NewPlaceOrderUseCase(
		cartService, orderRepo, ledger, couponService, invoiceGenerator, bus, idGenerator, tel)
	orderService := apporder.NewService(orderRepo, ledger, bus, tel)

	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		sender := mail.NewSendGridSender(apiKey,
			getenvDefault("MAIL_FROM", "no-reply@storefront.local"),
			getenvDefault("MAIL_FROM_NAME", "Storefront"))
		notification.NewWorker(bus, sender, userDirectory, baseLogger).Start()
	}

	handler := httptransport.NewHandler(cartService, catalogService, ledger, placeOrder, orderService)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.Instrument(handler.Router(), tel))

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		baseLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

// buildRepositories selects the storage backend. With DATABASE_URL set the
// relational repositories back the services; otherwise everything runs on the
// in-memory ones.
func buildRepositories(ctx context.Context, log observability.Logger) (domcatalog.Repository, domcart.Repository, domorder.Repository, func(), error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Info("storage_selected", observability.F("backend", "memory"))
		return memory.NewCatalogRepository(), memory.NewCartRepository(), memory.NewOrderRepository(), func() {}, nil
	}

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, err
	}

	log.Info("storage_selected", observability.F("backend", "postgres"))
	cleanup := func() { _ = db.Close() }
	return postgres.NewCatalogRepository(db), postgres.NewCartRepository(db), postgres.NewOrderRepository(db), cleanup, nil
}

func buildCounters(reg prometrics.Registry) map[observability.MetricKey]observability.Counter {
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: reg.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome"),
		observability.MHTTPRequests: reg.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "path", "status"),
		observability.MExternalRequests: reg.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to external peers.",
			"peer", "endpoint", "outcome"),
		observability.MStockDecrements: reg.Counter(
			string(observability.MStockDecrements),
			"Units of stock decremented.",
			"model_no"),
		observability.MStockRestores: reg.Counter(
			string(observability.MStockRestores),
			"Units of stock restored.",
			"model_no"),
	}
}

func buildHistograms(reg prometrics.Registry) map[observability.MetricKey]observability.Histogram {
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: reg.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case"),
		observability.MHTTPRequestDuration: reg.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "path"),
		observability.MExternalRequestDuration: reg.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of external calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
