package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
	"ArticleClassifier/internal/timeline"
)

var aggregateFlags app.AggregateParams

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Count labeled articles per year",
	Long: `Count the articles of a labeled file per year and label, and write the
summary to <input>.txt.`,
	Args: cobra.NoArgs,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateFlags.Input, "input", "i", "", "Labeled article file (required)")
	aggregateCmd.Flags().StringVar(&aggregateFlags.StartYear, "start-year", "", "First year of the timeline")
	aggregateCmd.Flags().StringVar(&aggregateFlags.EndYear, "end-year", "", "Last year of the timeline")
	aggregateCmd.Flags().BoolVar(&aggregateFlags.FitRange, "fit-range", false, "Use the years present in the file")
	_ = aggregateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		buckets, err := a.Aggregate(ctx, nil, aggregateFlags)
		if err != nil {
			return err
		}

		if !humanOutput {
			return outputJSON(buckets)
		}
		labels := buckets.Labels()
		outputHuman("Year  %s  %s\n", strings.Join(labels, "  "), timeline.TotalKey)
		for _, b := range buckets {
			outputHuman("%d", b.Year)
			for _, label := range labels {
				outputHuman("  %d", b.Counts[label])
			}
			outputHuman("  %d\n", b.Counts[timeline.TotalKey])
		}
		return nil
	})
}
