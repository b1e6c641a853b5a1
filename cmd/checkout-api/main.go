package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/catalog"
	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/httpx"
	"github.com/jcmexdev/checkout-engine/internal/httpx/middlewares"
	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
	"github.com/jcmexdev/checkout-engine/internal/order/memory"
	"github.com/jcmexdev/checkout-engine/internal/order/postgres"
	"github.com/jcmexdev/checkout-engine/internal/order/sqlite"
	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
	"github.com/jcmexdev/checkout-engine/internal/pkg/config"
	"github.com/jcmexdev/checkout-engine/internal/pkg/telemetry"
	"github.com/jcmexdev/checkout-engine/internal/security"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	orders, cleanup, err := openOrderStore(cfg)
	if err != nil {
		slog.Error("failed to open order store", "backend", cfg.OrderStore, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	store := openCacheStore(ctx, cfg)

	csrf := security.NewCSRFManager(store, security.DefaultCSRFTTL)
	limiter := security.NewRateLimiter(store, security.DefaultLimits)
	guard := middlewares.NewGuard(csrf, limiter)

	products := demoCatalog()
	createOrder := app.NewCreateOrderUseCase(orders, products, app.NewStandardShippingPolicy(), app.ZeroTaxPolicy{})

	handler := httpx.NewHandler(createOrder, orders, csrf)
	router := httpx.NewRouter(handler, guard)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("checkout API running", "addr", srv.Addr, "order_store", cfg.OrderStore, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
}

func openOrderStore(cfg config.Config) (order.Repository, func(), error) {
	switch cfg.OrderStore {
	case "postgres":
		repo, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "memory":
		return memory.NewRepository(), func() {}, nil
	default:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
}

func openCacheStore(ctx context.Context, cfg config.Config) cache.Store {
	if cfg.CacheBackend == "redis" {
		return cache.NewRedisStore(cfg.RedisAddr)
	}

	store := cache.NewMemoryStore()
	// The janitor keeps abandoned sessions from accumulating tokens and
	// rate-limit windows.
	go store.Janitor(ctx, time.Minute)
	return store
}

// demoCatalog stands in for the storefront's catalog service until the real
// collaborator is wired. Prices are authoritative for local checkout runs.
func demoCatalog() catalog.Repository {
	price := func(s string) domain.Money {
		m, _ := domain.NewMoney(decimal.RequireFromString(s), "EUR")
		return m
	}
	return catalog.NewMemoryRepository(
		catalog.Product{ID: "prod-001", Name: "Espresso Cups (Set of 6)", SKU: "CUP-6", Price: price("25.00"), IsActive: true, StockQuantity: 120},
		catalog.Product{ID: "prod-002", Name: "Moka Pot 3-Cup", SKU: "MOKA-3", Price: price("30.00"), IsActive: true, StockQuantity: 45},
		catalog.Product{ID: "prod-003", Name: "Burr Grinder", SKU: "GRND-1", Price: price("89.90"), IsActive: true, StockQuantity: 12},
	)
}
