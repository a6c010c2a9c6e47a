package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/seed"
)

func main() {
	accounts := seed.DefaultAccounts
	flag.StringVar(&accounts.AdminEmail, "admin-email", accounts.AdminEmail, "Admin login to create")
	flag.StringVar(&accounts.AdminPassword, "admin-password", accounts.AdminPassword, "Admin password")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	if err := seed.Apply(ctx, pool, accounts, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
