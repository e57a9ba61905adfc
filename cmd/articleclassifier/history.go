package main

import (
	"context"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarise the article ledger by label and status",
	Long: `Summarise every article recorded by previous runs. Requires database.dsn
in the config or DATABASE_DSN in the environment.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

type historyEntry struct {
	Label  string `json:"label"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		counts, err := a.History(ctx)
		if err != nil {
			return err
		}

		entries := make([]historyEntry, 0, len(counts))
		for _, c := range counts {
			label := c.Label
			if humanOutput && label == "" {
				label = "(unlabeled)"
			}
			entries = append(entries, historyEntry{Label: label, Status: string(c.Status), Count: c.Count})
		}

		if !humanOutput {
			return outputJSON(entries)
		}
		for _, e := range entries {
			outputHuman("%-24s %-12s %d\n", e.Label, e.Status, e.Count)
		}
		return nil
	})
}
