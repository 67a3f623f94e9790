package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/searchd/internal/cdi"
	"github.com/fyrsmithlabs/searchd/internal/search"
)

var (
	analyzeLimit    int
	analyzeProjects []string
	clusterStrategy string
	clusterMax      int
	clusterMinSize  int
)

// analyzeCmd groups the cross-document analysis operations; each
// subcommand searches first and analyzes the result set.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Cross-document analysis over search results",
}

var relationshipsCmd = &cobra.Command{
	Use:   "relationships <text>",
	Short: "Cluster results and build the citation network",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelationships,
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <text>",
	Short: "Detect contradictory statements between results",
	Args:  cobra.ExactArgs(1),
	RunE:  runConflicts,
}

var clustersCmd = &cobra.Command{
	Use:   "clusters <text>",
	Short: "Cluster results by a chosen strategy",
	Long: `Cluster search results.

Strategies: entity_based, topic_based, project_based, hierarchical,
mixed_features (default).`,
	Args: cobra.ExactArgs(1),
	RunE: runClusters,
}

func init() {
	analyzeCmd.PersistentFlags().IntVar(&analyzeLimit, "limit", 20, "number of results to analyze")
	analyzeCmd.PersistentFlags().StringSliceVar(&analyzeProjects, "project", nil, "restrict to project IDs")
	clustersCmd.Flags().StringVar(&clusterStrategy, "strategy", string(cdi.StrategyMixed), "clustering strategy")
	clustersCmd.Flags().IntVar(&clusterMax, "max-clusters", 10, "maximum clusters")
	clustersCmd.Flags().IntVar(&clusterMinSize, "min-size", 2, "minimum cluster size")
	analyzeCmd.AddCommand(relationshipsCmd)
	analyzeCmd.AddCommand(conflictsCmd)
	analyzeCmd.AddCommand(clustersCmd)
}

func runRelationships(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.engine.Search(cmd.Context(), search.Request{
		Query: args[0], ProjectIDs: analyzeProjects, Limit: analyzeLimit,
	})
	if err != nil {
		return err
	}
	return printJSON(a.engine.AnalyzeRelationships(cmd.Context(), docs))
}

func runConflicts(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.engine.Search(cmd.Context(), search.Request{
		Query: args[0], ProjectIDs: analyzeProjects, Limit: analyzeLimit,
	})
	if err != nil {
		return err
	}
	return printJSON(a.engine.DetectConflicts(cmd.Context(), docs))
}

func runClusters(cmd *cobra.Command, args []string) error {
	strategy := cdi.ClusteringStrategy(clusterStrategy)
	if !strategy.Valid() {
		return fmt.Errorf("unknown strategy %q", clusterStrategy)
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.engine.Search(cmd.Context(), search.Request{
		Query: args[0], ProjectIDs: analyzeProjects, Limit: analyzeLimit,
	})
	if err != nil {
		return err
	}
	return printJSON(a.engine.ClusterDocuments(cmd.Context(), docs, strategy, clusterMax, clusterMinSize))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
