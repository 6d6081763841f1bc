package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/curatorhq/curator/internal/pipeline"
)

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Print the aggregate knowledge base",
	Long: `Kb rebuilds the knowledge base from the stored corpus and prints it:
concept and keyword frequency tables, topic clusters and trending terms.`,
	RunE: runKB,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store statistics",
	Long:  `Stats prints the aggregate counts of the stored corpus: totals by kind, source and day, plus keyword frequency.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(statsCmd)
}

func loadedService() (*pipeline.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store.SnapshotPath == "" {
		return nil, fmt.Errorf("store.snapshot_path is not configured; nothing to inspect")
	}

	svc := pipeline.NewService(cfg)
	if err := svc.Store().Load(cfg.Store.SnapshotPath); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return svc, nil
}

func runKB(cmd *cobra.Command, args []string) error {
	svc, err := loadedService()
	if err != nil {
		return err
	}

	snapshot := svc.RebuildKnowledgeBase()

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal knowledge base: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, err := loadedService()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(svc.Stats())
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
