package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
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

			entries := eng.History(limit)
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "No searches recorded in this session.")
				return nil
			}

			st := newStyles()
			for _, e := range entries {
				fmt.Fprintf(w, "%s  %-8s %3d results  %s\n",
					st.Muted.Render(e.Timestamp.Format("2006-01-02 15:04:05")),
					e.Mode, e.ResultCount, e.Query)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 = all)")
	return cmd
}
