// Package main implements the searchd CLI for running hybrid searches and
// cross-document analysis against a configured backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/searchd/internal/backend"
	"github.com/fyrsmithlabs/searchd/internal/cdi"
	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/embeddings"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"github.com/fyrsmithlabs/searchd/internal/search"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "searchd",
	Short: "Hybrid search and cross-document analysis",
	Long: `searchd runs hybrid (vector + keyword) searches over an indexed
document collection and applies cross-document analysis to the results.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// app bundles everything a command needs after wiring.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	backend backend.Backend
	engine  *cdi.Engine
}

func (a *app) close() {
	if a.backend != nil {
		a.backend.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// buildApp wires config, logger, backend, embedder, pipeline and engine.
func buildApp() (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	be, err := backend.New(cfg.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}

	embedSvc, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		be.Close()
		return nil, fmt.Errorf("init embeddings: %w", err)
	}

	vector := search.NewVectorSearcher(be, embedSvc, cfg.Search, cfg.Backend.Collection, logger)
	keyword := search.NewKeywordSearcher(be, cfg.Search, logger)
	combiner := search.NewCombiner(search.NewEmbeddingBooster(embedSvc), logger)
	pipeline := search.NewPipeline(vector, keyword, combiner, cfg.Search, logger)

	similarity := cdi.NewSimilarityCalculator(embedSvc, logger)
	clusters := cdi.NewClusterAnalyzer(similarity, logger)
	citations := cdi.NewCitationAnalyzer(logger)
	complementary := cdi.NewComplementaryFinder(logger)
	conflicts := cdi.NewConflictDetector(cfg.Conflict, conflictModel(cfg), logger)

	engine := cdi.NewEngine(pipeline, similarity, clusters, citations, complementary, conflicts, logger)
	return &app{cfg: cfg, logger: logger, backend: be, engine: engine}, nil
}

// conflictModel builds the verification model only when enabled; detection
// stays heuristic-only otherwise.
func conflictModel(cfg *config.Config) llms.Model {
	if !cfg.Conflict.UseLLM {
		return nil
	}
	opts := []openai.Option{openai.WithModel(cfg.Conflict.Model)}
	if cfg.Embeddings.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.Embeddings.APIKey))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: conflict verification disabled: %v\n", err)
		return nil
	}
	return llm
}
