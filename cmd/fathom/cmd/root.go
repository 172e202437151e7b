// Package cmd provides the CLI commands for Fathom.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fathom-search/fathom/internal/config"
	"github.com/fathom-search/fathom/internal/engine"
	ferrors "github.com/fathom-search/fathom/internal/errors"
	"github.com/fathom-search/fathom/internal/logging"
	"github.com/fathom-search/fathom/internal/store"
	"github.com/fathom-search/fathom/internal/vector"
)

var (
	configPath     string
	dataDir        string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the fathom CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fathom",
		Short: "Hybrid search over your documents",
		Long: `Fathom indexes documents into a keyword (BM25) index and an optional
semantic (vector) index, and answers queries by merging both ranked
lists into one result set.

Without a vector backend configured, searches run keyword-only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $HOME/.fathom/config.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		reportError(os.Stderr, err)
	}
	return err
}

// reportError prints a command failure, logging the stable error code when
// the failure is coded and hinting at a retry when it is transient.
func reportError(w io.Writer, err error) {
	if code := ferrors.GetCode(err); code != "" {
		slog.Error("command failed", slog.String("code", code))
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if ferrors.IsRetryable(err) {
		fmt.Fprintln(w, "The operation may succeed if retried.")
	}
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging must never block the command itself.
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(config.Default().DataDir, "config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// buildEngine wires config into a ready engine. The returned cleanup
// persists the vector store (when present) and closes everything.
func buildEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	lexical, err := store.NewBleveLexicalIndex(cfg.IndexDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open lexical index: %w", err)
	}

	var vectorStore *vector.Store
	if cfg.Vector.Enabled {
		embedder, err := buildEmbedder(cfg)
		if err != nil {
			_ = lexical.Close()
			return nil, nil, err
		}
		vectorStore, err = vector.NewStore(embedder, cfg.VectorPath())
		if err != nil {
			_ = embedder.Close()
			_ = lexical.Close()
			return nil, nil, fmt.Errorf("open vector store: %w", err)
		}
	}

	engCfg := engine.Config{
		DefaultLimit:   cfg.Search.MaxResults,
		MinScore:       cfg.Search.MinScore,
		DiversityBoost: cfg.Search.DiversityBoost,
	}

	var eng *engine.Engine
	if vectorStore != nil {
		eng = engine.New(lexical, vectorStore, engCfg, slog.Default())
	} else {
		eng = engine.New(lexical, nil, engCfg, slog.Default())
	}

	cleanup := func() {
		if vectorStore != nil {
			if err := vectorStore.Save(); err != nil {
				slog.Warn("vector store save failed", slog.String("error", err.Error()))
			}
		}
		if err := eng.Close(); err != nil {
			slog.Warn("engine close failed", slog.String("error", err.Error()))
		}
	}
	return eng, cleanup, nil
}

func buildEmbedder(cfg *config.Config) (vector.Embedder, error) {
	switch cfg.Vector.Provider {
	case config.ProviderOpenAI:
		return vector.NewOpenAIEmbedder(vector.OpenAIConfig{
			APIKey:     cfg.Vector.OpenAIKey,
			Model:      cfg.Vector.Model,
			Dimensions: cfg.Vector.Dimensions,
		})
	default:
		return vector.NewOllamaEmbedder(vector.OllamaConfig{
			Host:       cfg.Vector.OllamaHost,
			Model:      cfg.Vector.Model,
			Dimensions: cfg.Vector.Dimensions,
		}), nil
	}
}
