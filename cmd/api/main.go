package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/jobs"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/payment"
	addressrepo "storefront/internal/repository/address"
	cartrepo "storefront/internal/repository/cart"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	sessionrepo "storefront/internal/repository/session"
	tokenrepo "storefront/internal/repository/token"
	addresssvc "storefront/internal/service/address"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	var sessions sessionrepo.Repository
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, session carts disabled", zap.Error(err))
		} else {
			sessions = sessionrepo.NewRedis(rdb, cfg.SessionCartTTL)
		}
	}

	var processor payment.Processor
	if cfg.StripeSecretKey != "" {
		processor = payment.NewStripe(cfg.StripeSecretKey, cfg.PaymentCurrency)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using in-memory payment processor")
		processor = payment.NewMemoryProcessor()
	}
	payments := payment.NewCoordinator(processor, logger)

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)

	customerService := customersvc.New(customerRepo, tokenRepo)
	cartService := cartsvc.New(cartRepo, sessions, productRepo, logger)
	orderService := ordersvc.New(orderRepo, cartRepo, payments, logger)
	addressService := addresssvc.New(addressrepo.NewPostgres(dbpool))

	deps := httpserver.Deps{
		CustomerSvc: customerService,
		Catalog:     productsvc.New(productRepo),
		CartSvc:     cartService,
		OrderSvc:    orderService,
		AddressSvc:  addressService,
	}
	if sessions != nil {
		deps.AnonymousSvc = anonymoussvc.New(sessions, cfg.SessionCartTTL)
	}

	sched := jobs.New(cfg.Timezone, logger)
	if err := sched.AddTokenPurge(cfg.TokenPurgeSpec, tokenRepo); err != nil {
		return err
	}
	sched.Start()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, deps, cfg.CORSOrigins)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-serverErr:
		logger.Error("server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	sched.Stop(shutdownCtx)
	return runErr
}
