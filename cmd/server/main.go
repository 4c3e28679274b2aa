package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"billing-backend/internal/config"
	"billing-backend/internal/database"
	"billing-backend/internal/db"
	"billing-backend/internal/i18n"
	"billing-backend/internal/logger"
	"billing-backend/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billing",
	Short: "Invoicing backend for machinery sales",
	Long: `billing serves the invoicing API: invoice lifecycle, totals calculation,
payments and PDF documents.

Configuration is read from configs/config.yaml, .env and the environment.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads config, sets up logging and opens the database pool.
func bootstrap(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Setup(cfg.LogConfig()); err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	i18n.SetFallback(i18n.Parse(cfg.Billing.DefaultLocale))

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return database.NewMigratorWithFS(pool, migrations.FS, ".").RunMigrations(ctx)
}
