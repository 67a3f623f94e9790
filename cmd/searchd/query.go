package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/searchd/internal/search"
)

var (
	queryLimit       int
	queryProjects    []string
	querySourceTypes []string
)

// queryCmd runs a hybrid search and prints results as JSON
var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a hybrid search",
	Long: `Run a hybrid (vector + keyword) search against the configured backend.

Examples:
  # Basic search
  searchd query "connection pool tuning"

  # Restrict to a project and source type
  searchd query "deploy checklist" --project platform --source-type wiki

  # Field-scoped keyword search
  searchd query "section_type:reference grpc"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 10, "maximum results")
	queryCmd.Flags().StringSliceVar(&queryProjects, "project", nil, "restrict to project IDs")
	queryCmd.Flags().StringSliceVar(&querySourceTypes, "source-type", nil, "restrict to source types")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.engine.Search(cmd.Context(), search.Request{
		Query:       args[0],
		SourceTypes: querySourceTypes,
		ProjectIDs:  queryProjects,
		Limit:       queryLimit,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
