package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/trendscope/trendscope/internal/analyzer"
	"github.com/trendscope/trendscope/internal/models"
	"github.com/trendscope/trendscope/internal/query"
)

func newAnalyzeCmd(state *cliState) *cobra.Command {
	var platforms string
	var maxResults int
	var withSummary bool

	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Analyze a topic across platforms and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := models.ParsePlatforms(platforms)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			service := analyzer.NewService(state.cfg, nil, nil)
			topic, err := service.Analyze(ctx, models.AnalysisRequest{
				Query:                 strings.Join(args, " "),
				Platforms:             selected,
				MaxResultsPerPlatform: maxResults,
			})
			if err != nil {
				return err
			}

			if !withSummary {
				return printJSON(cmd.OutOrStdout(), topic)
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"trending_topic": topic,
				"summary":        analyzer.GenerateSummary(topic),
			})
		},
	}

	cmd.Flags().StringVar(&platforms, "platforms", string(models.PlatformGitHub), "comma separated platforms to search (github,twitter,reddit)")
	cmd.Flags().IntVar(&maxResults, "max", analyzer.DefaultMaxResults, "maximum results per platform (1-100)")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "include the analysis summary")

	return cmd
}

func newQuickCmd(state *cliState) *cobra.Command {
	var platforms string

	cmd := &cobra.Command{
		Use:   "quick <query>",
		Short: "Run a small analysis and print a condensed summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := models.ParsePlatforms(platforms)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			service := analyzer.NewService(state.cfg, nil, nil)
			result, err := service.QuickAnalyze(ctx, strings.Join(args, " "), selected)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&platforms, "platforms", "", "comma separated platforms (default github)")
	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a natural language repository query is translated to GitHub search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			explanation := query.Explain(query.Parse(q))
			explanation["suggestions"] = query.Suggestions(q)
			return printJSON(cmd.OutOrStdout(), explanation)
		},
	}
}

func newCheckCmd(state *cliState) *cobra.Command {
	var probe string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which platforms are configured and probe each with a one-result search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := analyzer.NewService(state.cfg, nil, nil)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tENABLED\tPROBE\tLATENCY")

			failed := 0
			for _, src := range service.Sources() {
				if !src.IsEnabled() {
					fmt.Fprintf(w, "%s\tno\tskipped\t-\n", src.GetName())
					continue
				}

				ctx, cancel := context.WithTimeout(context.Background(), state.cfg.PlatformTimeout)
				start := time.Now()
				items, err := src.Search(ctx, probe, 1)
				cancel()

				status := fmt.Sprintf("ok (%d items)", len(items))
				if err != nil {
					failed++
					status = "error: " + err.Error()
				}
				fmt.Fprintf(w, "%s\tyes\t%s\t%v\n", src.GetName(), status, time.Since(start).Round(time.Millisecond))
			}

			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d platform probe(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&probe, "query", "golang", "query used for the probe search")
	return cmd
}
