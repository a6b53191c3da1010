// Command account_seed creates accounts in Postgres from SEED_ACCOUNTS,
// for example SEED_ACCOUNTS=user1:1000.00,user2:500.00. Existing accounts
// are left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"instantpay/internal/config"
	"instantpay/internal/logger"
	"instantpay/internal/repositories"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	accounts, err := repositories.ParseSeedAccounts(os.Getenv("SEED_ACCOUNTS"))
	if err != nil {
		log.Fatal("invalid SEED_ACCOUNTS", zap.Error(err))
	}
	if len(accounts) == 0 {
		log.Fatal("SEED_ACCOUNTS must be set, e.g. user1:1000.00,user2:500.00")
	}

	if err := repositories.InitDB(log); err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repositories.Close(log)

	repo := repositories.NewAccountRepository(repositories.DB)
	ctx := context.Background()
	for _, account := range accounts {
		err := repo.Create(ctx, account)
		switch {
		case errors.Is(err, repositories.ErrDuplicateAccount):
			log.Info("account already exists", zap.String("accountId", account.ID))
		case err != nil:
			log.Error("failed to create account", zap.String("accountId", account.ID), zap.Error(err))
		default:
			log.Info("account created", zap.String("accountId", account.ID), zap.String("balance", account.Balance.String()))
		}
	}

	total, err := repo.TotalBalance(ctx)
	if err != nil {
		log.Warn("failed to sum balances", zap.Error(err))
		return
	}
	log.Info("seed complete", zap.String("totalBalance", total.String()))
}
