package main

import (
	"fmt"
	"strings"

	"billing-backend/internal/auth"
	"billing-backend/internal/logger"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
	"billing-backend/internal/services"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pool, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrate(cmd.Context(), pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log := logger.WithComponent("migrate")
		log.Info().Msg("Migrations applied")
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Apply payment and due-date driven status changes once",
	Long: `reconcile walks every sent, overdue and partially paid invoice and moves
it to the status its payments and due date imply (overdue, partially paid or paid).`,
	Example: `  # Run from cron after the nightly bank import
  billing reconcile`,
	RunE: runReconcile,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a staff account",
	Example: `  billing create-user --name "Rahim Uddin" --email rahim@example.com \
    --password 's3cret-pass' --role accountant`,
	RunE: runCreateUser,
}

func init() {
	rootCmd.AddCommand(migrateCmd, reconcileCmd, createUserCmd)

	createUserCmd.Flags().String("name", "", "Display name")
	createUserCmd.Flags().String("email", "", "Login email")
	createUserCmd.Flags().String("password", "", "Initial password (min 8 characters)")
	createUserCmd.Flags().String("role", auth.RoleEmployee, "Role: admin, accountant or employee")
	createUserCmd.Flags().StringSlice("permission", nil, "Extra permission, repeatable")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, pool, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	invoiceRepo := repositories.NewInvoiceRepository(pool)
	status := services.NewStatusService(invoiceRepo, nil, nil)
	report, err := services.NewReconciliationService(invoiceRepo, status, cfg.Reconcile.Interval).
		Run(ctx, services.TriggerCLI)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "checked %d, changed %d, failed %d\n",
		report.Checked, len(report.Changed), len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", f.InvoiceID, strings.Join(f.Errors, "; "))
	}
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, pool, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	req := &models.CreateUserRequest{}
	req.Name, _ = cmd.Flags().GetString("name")
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.Role, _ = cmd.Flags().GetString("role")
	req.Permissions, _ = cmd.Flags().GetStringSlice("permission")

	svc := services.NewUserService(repositories.NewUserRepository(pool), auth.NewJWTManager(cfg))
	user, err := svc.CreateUser(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, role %s)\n", user.Email, user.ID, user.Role)
	return nil
}
