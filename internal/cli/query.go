package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/curatorhq/curator/internal/pipeline"
)

var (
	queryScope string
	queryTopK  int
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve ranked content for a free-text query",
	Long: `Query ranks the stored corpus against a free-text query and prints
the top matches with their excerpts.

A query containing a summary trigger word ("summarize", "overview", ...)
returns the whole corpus ordered by collection time instead of a ranked
subset.

Example:
  curator query "linkedin ads"
  curator query "geomarketing" --scope marketing-blog --top-k 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryScope, "scope", "", "restrict candidates to one source name (default: all)")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "maximum results (default from config)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.SnapshotPath == "" {
		return fmt.Errorf("store.snapshot_path is not configured; nothing to query")
	}

	svc := pipeline.NewService(cfg)
	if err := svc.Store().Load(cfg.Store.SnapshotPath); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	query := strings.Join(args, " ")
	result := svc.Retrieve(query, queryScope, queryTopK)

	if result.FullCorpus {
		fmt.Printf("Full corpus (%d items):\n\n", len(result.Results))
	} else {
		fmt.Printf("Top %d result(s) for %q:\n\n", len(result.Results), query)
	}

	for i, hit := range result.Results {
		fmt.Printf("%d. %s", i+1, hit.Item.Title)
		if !result.FullCorpus {
			fmt.Printf("  (score %d)", hit.Score)
		}
		fmt.Println()
		fmt.Printf("   source: %s", hit.Item.SourceName)
		if hit.Item.URL != "" {
			fmt.Printf("  %s", hit.Item.URL)
		}
		fmt.Println()
		if hit.Excerpt != "" {
			excerpt := hit.Excerpt
			if len(excerpt) > 200 {
				cut := 200
				for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
					cut--
				}
				excerpt = excerpt[:cut] + "…"
			}
			fmt.Printf("   %s\n", excerpt)
		}
		fmt.Println()
	}

	return nil
}
