package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show search usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng, cleanup, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			stats := eng.Stats()
			w := cmd.OutOrStdout()
			st := newStyles()

			fmt.Fprintln(w, st.Header.Render("Search statistics"))
			fmt.Fprintf(w, "  Total searches:  %d\n", stats.TotalSearches)
			fmt.Fprintf(w, "  Average results: %.1f\n", stats.AverageResults)
			for mode, n := range stats.SearchesByMode {
				fmt.Fprintf(w, "  %-8s         %d\n", mode+":", n)
			}
			if len(stats.TopQueries) > 0 {
				fmt.Fprintln(w, st.Header.Render("Top queries"))
				for _, q := range stats.TopQueries {
					fmt.Fprintf(w, "  %4d  %s\n", q.Count, q.Query)
				}
			}
			return nil
		},
	}
}
