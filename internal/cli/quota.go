package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/server"
)

// quotaReport is what `pulseai quota` prints
type quotaReport struct {
	UserID         int64  `json:"userId" yaml:"userId"`
	Allowed        bool   `json:"allowed" yaml:"allowed"`
	Bucket         string `json:"bucket" yaml:"bucket"`
	SubscriptionID int64  `json:"subscriptionId,omitempty" yaml:"subscriptionId,omitempty"`
	RequestsLeft   int    `json:"requestsLeft" yaml:"requestsLeft"`
}

func newQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota <userId>",
		Short: "Show the entitlement decision for a user's next request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := server.OpenDB(cfg.Database, logger.Nop())
			if err != nil {
				return err
			}
			defer db.Close()

			policy := entitlement.Policy{
				FreeRequests:      cfg.Quota.FreeRequests,
				UnlimitedSentinel: cfg.Quota.UnlimitedSentinel,
			}
			return runQuota(cmd.Context(), cmd.OutOrStdout(), getOutputFormat(), db, postgres.DialectFor(cfg.Database.Driver), policy, userID)
		},
	}
}

func runQuota(ctx context.Context, w io.Writer, format string, db *sql.DB, d postgres.Dialect, policy entitlement.Policy, userID int64) error {
	engine := entitlement.NewEngine(postgres.NewLedgerRepository(db, d), policy)

	decision, err := engine.Check(ctx, userID)
	if err != nil {
		return err
	}

	report := quotaReport{
		UserID:         userID,
		Allowed:        decision.Allowed,
		Bucket:         string(decision.Bucket),
		SubscriptionID: decision.SubscriptionID,
		RequestsLeft:   decision.RequestsLeft,
	}
	if !decision.Allowed {
		report.Bucket = "none"
	}

	if format != "table" {
		return printOutput(w, format, report)
	}

	table := NewTable(w, "USER", "ALLOWED", "BUCKET", "REQUESTS LEFT")
	table.AddRow(strconv.FormatInt(userID, 10), strconv.FormatBool(report.Allowed), report.Bucket, strconv.Itoa(report.RequestsLeft))
	table.Render()
	return nil
}
