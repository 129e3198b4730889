package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/providers"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/server"
	"github.com/pulseai/pulseai/internal/services"
	"github.com/pulseai/pulseai/internal/worker"
)

type reconcileReport struct {
	Checked int `json:"checked" yaml:"checked"`
	Applied int `json:"applied" yaml:"applied"`
	Failed  int `json:"failed" yaml:"failed"`
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Apply stale pending payments the gateway reports as paid",
		Long: `Looks up pending payments older than PAYMENT_RECONCILE_AFTER at the
payment gateway and grants the subscription for each one it confirms.
Runs one batch and exits; schedule it externally to recover missed webhooks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logCfg := logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, OutputPath: "stderr"}
			log := logger.New(logCfg)

			db, err := server.OpenDB(cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			dialect := postgres.DialectFor(cfg.Database.Driver)
			payments := postgres.NewPaymentRepository(db, dialect)
			gateway := providers.NewYooKassaClient(cfg.Payment)
			svc := services.NewPaymentService(payments, postgres.NewUserRepository(db, dialect), gateway, plan.Default(), cfg.Payment, log)

			reconciler := worker.NewPaymentReconciler(payments, gateway, svc, cfg.Payment, log)
			return runReconcile(cmd.Context(), cmd.OutOrStdout(), getOutputFormat(), reconciler)
		},
	}
}

func runReconcile(ctx context.Context, w io.Writer, format string, r *worker.PaymentReconciler) error {
	res, err := r.ReconcileOnce(ctx)
	if err != nil {
		return err
	}

	report := reconcileReport{Checked: res.Checked, Applied: res.Applied, Failed: res.Failed}
	if format != "table" {
		return printOutput(w, format, report)
	}

	table := NewTable(w, "CHECKED", "APPLIED", "FAILED")
	table.AddRow(strconv.Itoa(report.Checked), strconv.Itoa(report.Applied), strconv.Itoa(report.Failed))
	table.Render()
	return nil
}
