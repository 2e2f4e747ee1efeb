// Command trendscope scores how much a topic is trending across GitHub,
// Twitter and Reddit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/trendscope/trendscope/internal/config"
	"github.com/trendscope/trendscope/internal/storage"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliState is shared by the subcommands once the root command has loaded
// the configuration.
type cliState struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "trendscope",
		Short:         "Score how much a topic is trending across developer platforms",
		Long:          "trendscope searches GitHub, Twitter and Reddit concurrently and combines the results into one trending score.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env file if it exists
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if debug {
				cfg.Debug = true
			}

			logrus.SetLevel(logrus.InfoLevel)
			if cfg.Debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			logrus.SetFormatter(&logrus.JSONFormatter{})

			state.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.SetVersionTemplate("trendscope version {{.Version}}\n")

	rootCmd.AddCommand(newServeCmd(state))
	rootCmd.AddCommand(newAnalyzeCmd(state))
	rootCmd.AddCommand(newQuickCmd(state))
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newCheckCmd(state))
	rootCmd.AddCommand(newReportCmd(state))

	return rootCmd
}

// openStorage picks blob storage when an account is configured and the
// local SQLite archive otherwise. The returned func releases it.
func openStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, func(), error) {
	if cfg.StorageAccount != "" {
		s, err := storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return s, func() {}, nil
	}

	s, err := storage.NewSQLiteStorage(cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logrus.Infof("Archiving analyses to %s", cfg.SQLitePath)
	return s, func() { s.Close() }, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
