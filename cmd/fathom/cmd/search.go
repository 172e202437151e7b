package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fathom-search/fathom/internal/engine"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit       int
	minScore    float64
	keywordOnly bool
	vectorOnly  bool
	format      string
	highlight   bool
}

// jsonResult is the JSON output shape for one search hit.
type jsonResult struct {
	ID           string   `json:"id"`
	Path         string   `json:"path"`
	Snippet      string   `json:"snippet"`
	Score        float64  `json:"score"`
	Source       string   `json:"source"`
	VectorScore  *float64 `json:"vector_score,omitempty"`
	KeywordScore *float64 `json:"keyword_score,omitempty"`
	StartLine    int      `json:"start_line,omitempty"`
	EndLine      int      `json:"end_line,omitempty"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `Search indexed documents with hybrid retrieval: keyword (BM25) and
semantic results are merged into one ranked list.

Examples:
  fathom search "connection pool timeout"
  fathom search parseRequest --keyword-only --limit 5
  fathom search "how does retry work" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "Minimum hybrid score (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.keywordOnly, "keyword-only", false, "Keyword search only")
	cmd.Flags().BoolVar(&opts.vectorOnly, "vector-only", false, "Semantic search only")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.highlight, "highlight", false, "Highlight matched terms in snippets")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	searchOpts := engine.SearchOptions{
		MaxResults:    opts.limit,
		MinScore:      opts.minScore,
		VectorWeight:  cfg.Search.VectorWeight,
		KeywordWeight: cfg.Search.KeywordWeight,
		VectorOnly:    opts.vectorOnly,
		KeywordOnly:   opts.keywordOnly,
	}
	if opts.highlight && opts.format != "json" {
		searchOpts.HighlightPre = "\x1b[1m"
		searchOpts.HighlightPost = "\x1b[0m"
	}

	results, err := eng.Search(ctx, query, searchOpts)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return printJSON(cmd, results)
	}
	printText(cmd, query, results)
	return nil
}

func printJSON(cmd *cobra.Command, results []*engine.HybridResult) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			ID:           r.ID,
			Path:         r.Path,
			Snippet:      r.Snippet,
			Score:        r.Score,
			Source:       string(r.Source),
			VectorScore:  r.VectorScore,
			KeywordScore: r.KeywordScore,
			StartLine:    r.StartLine,
			EndLine:      r.EndLine,
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printText(cmd *cobra.Command, query string, results []*engine.HybridResult) {
	w := cmd.OutOrStdout()
	st := newStyles()

	if len(results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}

	fmt.Fprintf(w, "%s\n\n", st.Header.Render(fmt.Sprintf("%d result(s) for %q", len(results), query)))
	for i, r := range results {
		location := r.Path
		if r.StartLine > 0 {
			location = fmt.Sprintf("%s:%d-%d", r.Path, r.StartLine, r.EndLine)
		}
		fmt.Fprintf(w, "%2d. %s  %s %s\n", i+1,
			st.Path.Render(location),
			st.Score.Render(fmt.Sprintf("%.3f", r.Score)),
			st.Source.Render("["+string(r.Source)+"]"))
		if r.Snippet != "" {
			fmt.Fprintf(w, "    %s\n", st.Snippet.Render(oneLine(r.Snippet)))
		}
		fmt.Fprintln(w)
	}
}

// oneLine collapses a snippet to a single display line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
