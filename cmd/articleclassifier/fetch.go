package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
)

var fetchFlags app.FetchParams

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the articles of a journal from Scopus",
	Long: `Download every article of one journal, year by year, that has an
abstract and at least the requested number of citations.

Year and citation values that cannot be parsed fall back to the configured
defaults.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFlags.ISSN, "issn", "", "Journal ISSN (required)")
	fetchCmd.Flags().StringVar(&fetchFlags.StartYear, "start-year", "", "First year to fetch")
	fetchCmd.Flags().StringVar(&fetchFlags.EndYear, "end-year", "", "Last year to fetch")
	fetchCmd.Flags().StringVar(&fetchFlags.Threshold, "citations", "", "Minimum citation count")
	fetchCmd.Flags().StringVarP(&fetchFlags.Output, "output", "o", "articles.csv", "Article file to write")
	fetchCmd.Flags().StringVar(&fetchFlags.JournalCSV, "journal-csv", "", "Also write a one-row journal summary to this file")
	_ = fetchCmd.MarkFlagRequired("issn")
	rootCmd.AddCommand(fetchCmd)
}

type fetchResult struct {
	ISSN         string `json:"issn"`
	Title        string `json:"title"`
	Articles     int    `json:"articles"`
	ArticleCount int    `json:"articleCount"`
	Output       string `json:"output"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		journal, err := a.Fetch(ctx, nil, fetchFlags)
		if err != nil {
			return err
		}

		if humanOutput {
			outputHuman("%s (%s): %d of %d articles written to %s\n",
				journal.Title, journal.ISSN, len(journal.Articles), journal.ArticleCount, fetchFlags.Output)
			return nil
		}
		return outputJSON(fetchResult{
			ISSN:         journal.ISSN,
			Title:        journal.Title,
			Articles:     len(journal.Articles),
			ArticleCount: journal.ArticleCount,
			Output:       fetchFlags.Output,
		})
	})
}
