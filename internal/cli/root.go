package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pulseai/pulseai/pkg/client"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
)

// NewRootCmd builds the pulseai command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pulseai",
		Short: "PulseAI - subscription-gated AI answers",
		Long: `pulseai runs and operates the PulseAI backend.

Operator commands (serve, migrate, quota) read the server configuration from
the environment. Account commands (login, ask, profile, buy) talk to a running
server and keep their credentials in ~/.pulseai/config.yaml.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.pulseai/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newQuotaCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newBuyCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PULSEAI")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pulseai"), nil
}

// newAPIClient builds a client for the configured server, carrying the
// stored token when there is one
func newAPIClient() *client.Client {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	return client.NewClient(client.Config{
		BaseURL: url,
		Token:   viper.GetString("auth.token"),
	})
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
