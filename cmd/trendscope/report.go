package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/trendscope/trendscope/internal/analyzer"
	"github.com/trendscope/trendscope/internal/notifications"
)

func newReportCmd(state *cliState) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze the watchlist once and send the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.cfg
			if len(cfg.Watchlist) == 0 {
				return errors.New("no watchlist configured (set WATCHLIST_FILE or WATCHLIST)")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if dryRun {
				service := analyzer.NewService(cfg, nil, nil)
				report, err := service.RunWatchlist(ctx, cfg.Watchlist)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), notifications.BuildTextReport(report))
				return nil
			}

			storageClient, closeStorage, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			service := analyzer.NewService(cfg, storageClient, notifications.NewService(cfg))
			report, err := service.RunWatchlist(ctx, cfg.Watchlist)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report sent for %d topics\n", report.TotalTopics)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report instead of archiving and sending it")
	return cmd
}
