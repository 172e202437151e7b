package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/fathom-search/fathom/internal/store"
)

// maxIndexFileSize skips files unlikely to be plain text documents.
const maxIndexFileSize = 4 * 1024 * 1024

// indexOptions holds CLI flags for index.
type indexOptions struct {
	source string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <path>...",
		Short: "Index files or directories",
		Long: `Index files into the search engine. Directories are walked
recursively; binary and oversized files are skipped.

Examples:
  fathom index ./docs
  fathom index README.md notes.txt --source notes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Source label stored with each document")
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, paths []string, opts indexOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	docs, skipped, err := collectDocuments(paths, opts.source)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no indexable files found under %s", strings.Join(paths, ", "))
	}

	indexed, err := eng.IndexDocuments(ctx, docs)
	if err != nil {
		return err
	}

	st := newStyles()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d document(s) indexed",
		st.Header.Render("Indexed:"), indexed)
	if failed := len(docs) - indexed; failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d failed", failed)
	}
	if skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " %s", st.Muted.Render(fmt.Sprintf("(%d skipped)", skipped)))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// collectDocuments walks the given paths and builds documents from readable
// text files. Returns the documents and the number of skipped files.
func collectDocuments(paths []string, source string) ([]*store.Document, int, error) {
	var docs []*store.Document
	skipped := 0

	addFile := func(path string, info fs.FileInfo) {
		if info.Size() == 0 || info.Size() > maxIndexFileSize {
			skipped++
			return
		}
		data, err := os.ReadFile(path)
		if err != nil || !utf8.Valid(data) {
			skipped++
			return
		}
		docs = append(docs, &store.Document{
			Path:    filepath.ToSlash(path),
			Content: string(data),
			Source:  source,
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			addFile(root, info)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if strings.HasPrefix(name, ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			addFile(path, info)
			return nil
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return docs, skipped, nil
}
