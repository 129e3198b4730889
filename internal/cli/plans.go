package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pulseai/pulseai/internal/api/dto"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/pkg/client"
)

func newPlansCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List the subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			var plans []client.Plan
			if remote {
				var err error
				plans, err = newAPIClient().Plans(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch plans: %w", err)
				}
			} else {
				plans = localPlans()
			}
			return printPlans(cmd.OutOrStdout(), getOutputFormat(), plans)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the catalogue from the server")

	return cmd
}

func localPlans() []client.Plan {
	dtos := dto.ToPlanDTOs(plan.Default().All())
	out := make([]client.Plan, len(dtos))
	for i, p := range dtos {
		out[i] = client.Plan{
			Type:         p.Type,
			Title:        p.Title,
			Price:        p.Price,
			Requests:     p.Requests,
			Unlimited:    p.Unlimited,
			DurationDays: p.DurationDays,
		}
	}
	return out
}

func printPlans(w io.Writer, format string, plans []client.Plan) error {
	if format != "table" {
		return printOutput(w, format, plans)
	}

	table := NewTable(w, "TYPE", "TITLE", "PRICE", "REQUESTS")
	for _, p := range plans {
		requests := "-"
		switch {
		case p.Unlimited:
			requests = fmt.Sprintf("unlimited for %d days", p.DurationDays)
		case p.Requests != nil:
			requests = strconv.Itoa(*p.Requests)
		}
		table.AddRow(p.Type, p.Title, fmt.Sprintf("%d RUB", p.Price), requests)
	}
	table.Render()
	return nil
}

