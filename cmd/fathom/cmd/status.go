package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index status",
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

			status, err := eng.Status(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			st := newStyles()
			fmt.Fprintln(w, st.Header.Render("Index status"))
			fmt.Fprintf(w, "  Documents:  %d\n", status.TotalDocuments)
			fmt.Fprintf(w, "  Index size: %s\n", formatBytes(status.IndexSizeBytes))
			fmt.Fprintf(w, "  Keyword:    %s\n", readiness(status.LexicalReady))
			fmt.Fprintf(w, "  Vector:     %s\n", readiness(status.VectorReady))
			return nil
		},
	}
}

func readiness(ready bool) string {
	if ready {
		return "ready"
	}
	return "unavailable"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
