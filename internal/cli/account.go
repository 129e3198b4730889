package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pulseai/pulseai/pkg/client"
)

func newLoginCmd() *cobra.Command {
	var phone, code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a phone number and one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			api := newAPIClient()

			if phone == "" {
				phone = promptInput(in, out, "Phone: ")
			}

			if code == "" {
				sent, err := api.RequestCode(cmd.Context(), phone)
				if err != nil {
					return fmt.Errorf("failed to request code: %w", err)
				}
				fmt.Fprintln(out, sent.Message)
				code = promptInput(in, out, "Code: ")
			}

			v, err := api.Verify(cmd.Context(), phone, code)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			viper.Set("auth.token", v.Token)
			viper.Set("auth.user_id", v.UserID)
			viper.Set("auth.phone", v.Phone)
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			fmt.Fprintf(out, "Logged in as %s (user %d)\n", v.Phone, v.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&code, "code", "", "one-time code, if already received")

	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := newAPIClient().Ask(cmd.Context(), viper.GetInt64("auth.user_id"), strings.Join(args, " "))
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.IsQuotaExceeded() {
					return fmt.Errorf("%s. Run 'pulseai plans' and 'pulseai buy <plan>' to continue", apiErr.Message)
				}
				return err
			}

			if format := getOutputFormat(); format != "table" {
				return printOutput(cmd.OutOrStdout(), format, answer)
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer.Answer)
			fmt.Fprintf(cmd.OutOrStdout(), "\n(tokens: %d, requests left: %d)\n", answer.TokensUsed, answer.RequestsLeft)
			return nil
		},
	}
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your account, subscriptions and usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newAPIClient().Profile(cmd.Context(), viper.GetInt64("auth.user_id"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format := getOutputFormat(); format != "table" {
				return printOutput(out, format, p)
			}

			fmt.Fprintf(out, "Phone:         %s\n", p.Phone)
			fmt.Fprintf(out, "Member since:  %s\n", p.MemberSince)
			fmt.Fprintf(out, "Free requests: %d used, %d left\n", p.FreeRequestsUsed, p.FreeRequestsLeft)
			fmt.Fprintf(out, "Requests:      %d (%d tokens)\n", p.Stats.TotalRequests, p.Stats.TotalTokens)
			fmt.Fprintf(out, "Spent:         %.2f RUB\n\n", p.Stats.TotalSpent)

			table := NewTable(out, "PLAN", "USED", "TOTAL", "EXPIRES", "STATUS")
			for _, s := range p.Subscriptions {
				total, expires := "-", "-"
				if s.IsUnlimited {
					total = "unlimited"
				} else if s.RequestsTotal != nil {
					total = strconv.Itoa(*s.RequestsTotal)
				}
				if s.ExpiresAt != nil {
					expires = *s.ExpiresAt
				}
				table.AddRow(s.PlanType, strconv.Itoa(s.RequestsUsed), total, expires, formatStatus(s.IsActive))
			}
			table.Render()
			return nil
		},
	}
}

func newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <plan>",
		Short: "Open a checkout for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkout, err := newAPIClient().Checkout(cmd.Context(), viper.GetInt64("auth.user_id"), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s created. Complete it at:\n%s\n", checkout.PaymentID, checkout.PaymentURL)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := newAPIClient().Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\n", health.Status)
			if phone := viper.GetString("auth.phone"); phone != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", truncate(phone, 20))
			}
			return nil
		},
	}
}

func promptInput(in *bufio.Reader, out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
