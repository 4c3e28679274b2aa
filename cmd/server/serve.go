package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billing-backend/internal/auth"
	"billing-backend/internal/cache"
	"billing-backend/internal/events"
	"billing-backend/internal/handlers"
	"billing-backend/internal/health"
	h "billing-backend/internal/http"
	"billing-backend/internal/logger"
	"billing-backend/internal/middleware"
	"billing-backend/internal/repositories"
	"billing-backend/internal/services"
	"billing-backend/internal/storage"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("skip-migrations", false, "Start without applying pending migrations")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, pool, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	log := logger.WithComponent("server")

	if skip, _ := cmd.Flags().GetBool("skip-migrations"); !skip {
		if err := migrate(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	invoiceCache, err := cache.New(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
	}
	defer invoiceCache.Close()

	hub := events.NewHub()
	hub.Start()
	defer hub.Stop()

	// A nil *storage.Archive must not reach the service as a non-nil interface.
	var archive services.PDFArchive
	if a, err := storage.NewArchive(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("Document archive disabled")
	} else if a != nil {
		archive = a
	}

	jwtManager := auth.NewJWTManager(cfg)

	userRepo := repositories.NewUserRepository(pool)
	clientRepo := repositories.NewClientRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	transactionRepo := repositories.NewTransactionRepository(pool)

	statusService := services.NewStatusService(invoiceRepo, invoiceCache, hub)
	invoiceService := services.NewInvoiceService(invoiceRepo, clientRepo, invoiceCache, services.InvoiceDefaults{
		Currency:         cfg.Billing.DefaultCurrency,
		PaymentTermsDays: cfg.Billing.PaymentTermsDays,
	})
	clientService := services.NewClientService(clientRepo, invoiceCache)
	transactionService := services.NewTransactionService(transactionRepo, invoiceRepo, statusService, invoiceCache)
	reconciliation := services.NewReconciliationService(invoiceRepo, statusService, cfg.Reconcile.Interval)
	userService := services.NewUserService(userRepo, jwtManager)
	reportService := services.NewReportService(invoiceRepo, transactionRepo, archive, cfg.Billing.VendorName)
	collector := services.NewMetricsCollector(invoiceRepo)

	router := h.NewRouter(
		handlers.NewAuthHandler(userService),
		handlers.NewClientHandler(clientService),
		handlers.NewInvoiceHandler(invoiceService, statusService, reconciliation),
		handlers.NewTransactionHandler(transactionService),
		handlers.NewReportHandler(reportService),
		handlers.NewHealthHandler(health.NewHealthChecker(pool, invoiceCache)),
		http.HandlerFunc(hub.ServeWS),
		middleware.NewAuthMiddleware(jwtManager, userRepo),
	)
	handler := middleware.PanicRecovery(middleware.NewCORS(cfg)(router))

	collector.Start()
	defer collector.Stop()
	reconciliation.Start()
	defer reconciliation.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
