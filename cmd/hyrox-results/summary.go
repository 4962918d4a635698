package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise finish times in the results store",
	Long:  "Reads the results store and prints finishers, best, median and mean time per season followed by the fastest time of every event.",
	RunE:  runSummary,
}

var summaryFlags struct {
	input       string
	seasons     []string
	gender      string
	category    string
	nationality string
}

func init() {
	defaults := config.DefaultConfig()
	flags := summaryCmd.Flags()
	flags.StringVarP(&summaryFlags.input, "input", "i", defaults.OutputFile, "Results store path")
	flags.StringSliceVar(&summaryFlags.seasons, "season", nil, "Only these seasons")
	flags.StringVar(&summaryFlags.gender, "gender", "", "Only this gender")
	flags.StringVar(&summaryFlags.category, "category", "", "Only this category")
	flags.StringVar(&summaryFlags.nationality, "nationality", "", "Only this nationality")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	input := summaryFlags.input
	if value, ok := config.EnvString("HYROX_OUTPUT"); ok && !cmd.Flags().Changed("input") {
		input = value
	}

	entries, dropped, err := report.Load(input)
	if err != nil {
		return err
	}
	if dropped > 0 {
		slog.Debug("rows without a parseable finish time dropped", slog.Int("rows", dropped))
	}

	entries = report.Apply(entries, report.Filter{
		Seasons:     summaryFlags.seasons,
		Gender:      summaryFlags.gender,
		Category:    summaryFlags.category,
		Nationality: summaryFlags.nationality,
	})
	if len(entries) == 0 {
		return fmt.Errorf("no results in %s match the filters", input)
	}
	return report.Print(cmd.OutOrStdout(), entries)
}
