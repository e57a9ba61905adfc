package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
)

var wordcloudFlags app.WordCloudParams

var wordcloudCmd = &cobra.Command{
	Use:   "wordcloud",
	Short: "Render word clouds from well-cited abstracts",
	Args:  cobra.NoArgs,
	RunE:  runWordCloud,
}

func init() {
	wordcloudCmd.Flags().StringVarP(&wordcloudFlags.Input, "input", "i", "", "Article file (required)")
	wordcloudCmd.Flags().StringVar(&wordcloudFlags.Threshold, "min-citations", "", "Only use articles with at least this many citations")
	wordcloudCmd.Flags().BoolVar(&wordcloudFlags.ByCategory, "by-category", false, "Render one cloud per label")
	wordcloudCmd.Flags().StringVar(&wordcloudFlags.OutputDir, "output-dir", "", "Directory for the per-label images")
	_ = wordcloudCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(wordcloudCmd)
}

func runWordCloud(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		paths, err := a.WordCloud(ctx, nil, wordcloudFlags)
		if err != nil {
			return err
		}

		if !humanOutput {
			return outputJSON(map[string][]string{"files": paths})
		}
		for _, p := range paths {
			outputHuman("%s\n", p)
		}
		return nil
	})
}
