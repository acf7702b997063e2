package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/josh-kwaku/tizim-bank/internal/config"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
	"github.com/josh-kwaku/tizim-bank/internal/repository"
	"github.com/josh-kwaku/tizim-bank/internal/seed"
	"github.com/josh-kwaku/tizim-bank/internal/service"
)

func main() {
	envFile := flag.String("env", "", "dotenv file to load before reading the environment")
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	seedFile := flag.String("seed", "", "bank seed YAML (defaults to BANK_SEED_FILE)")
	flag.Parse()

	if err := run(*envFile, *dir, *seedFile); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(envFile, dir, seedFile string) error {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return err
	}
	logger := logging.Init("tizim-migrate", cfg.LogLevel, cfg.AppEnv)

	if dir == "" {
		dir = cfg.MigrationsDir
	}
	if seedFile == "" {
		seedFile = cfg.BankSeedFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.WaitForPostgres(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, 30)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	applied, err := repository.RunMigrations(ctx, pool, dir)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "dir", dir, "applied", applied)

	if seedFile == "" {
		return nil
	}

	banks, err := seed.LoadBanksFile(seedFile)
	if err != nil {
		return err
	}
	n, err := service.NewBankService(repository.NewBankRepository(pool)).Seed(ctx, banks)
	if err != nil {
		return err
	}
	logger.Info("bank directory seeded", "file", seedFile, "banks", n)
	return nil
}
