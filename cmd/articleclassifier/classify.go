package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
)

var classifyFlags app.ClassifyParams

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label every abstract with one of the given topics",
	Long: `Send each sufficiently cited abstract to the configured model and label it
with one of the comma-separated topics, or Undefined.

The article file is rewritten with the labels (Undefined articles are dropped
unless --keep-undefined is set) and a per-year summary is written to
<input>.txt.`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFlags.Input, "input", "i", "", "Article file to classify (required)")
	classifyCmd.Flags().StringVarP(&classifyFlags.Topics, "topics", "t", "", "Comma-separated topics (required)")
	classifyCmd.Flags().StringVar(&classifyFlags.Threshold, "min-citations", "", "Skip articles below this citation count")
	classifyCmd.Flags().BoolVar(&classifyFlags.KeepUndefined, "keep-undefined", false, "Keep Undefined articles in the rewritten file")
	classifyCmd.Flags().BoolVar(&classifyFlags.NoRewrite, "no-rewrite", false, "Leave the article file untouched")
	_ = classifyCmd.MarkFlagRequired("input")
	_ = classifyCmd.MarkFlagRequired("topics")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		report, err := a.Classify(ctx, nil, classifyFlags)
		if err != nil {
			return err
		}

		if !humanOutput {
			return outputJSON(report)
		}
		outputHuman("Total %d, processed %d, skipped %d, errors %d\n",
			report.Total, report.Processed, report.Skipped, report.Errors)
		labels := make([]string, 0, len(report.ByLabel))
		for label := range report.ByLabel {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			outputHuman("  %-24s %d\n", label, report.ByLabel[label])
		}
		return nil
	})
}
