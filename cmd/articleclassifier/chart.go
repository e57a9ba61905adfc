package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
)

var chartFlags app.ChartParams

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the per-label timeline as an interactive HTML chart",
	Args:  cobra.NoArgs,
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&chartFlags.Input, "input", "i", "", "Labeled article file (required)")
	chartCmd.Flags().StringVar(&chartFlags.StartYear, "start-year", "", "First year of the timeline")
	chartCmd.Flags().StringVar(&chartFlags.EndYear, "end-year", "", "Last year of the timeline")
	chartCmd.Flags().BoolVar(&chartFlags.FitRange, "fit-range", false, "Use the years present in the file")
	chartCmd.Flags().StringVarP(&chartFlags.Output, "output", "o", "", "HTML file to write (defaults to the configured path)")
	chartCmd.Flags().BoolVar(&chartFlags.Open, "open", false, "Open the chart in the default browser")
	_ = chartCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		path, err := a.Chart(ctx, nil, chartFlags)
		if err != nil {
			return err
		}

		if humanOutput {
			outputHuman("Chart written to %s\n", path)
			return nil
		}
		return outputJSON(map[string]string{"output": path})
	})
}
