package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatorhq/curator/internal/model"
	"github.com/curatorhq/curator/internal/pipeline"
)

var runOnce bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingestion scheduler",
	Long: `Run starts the ingestion loop: every enabled source is polled on
its own schedule, fetched items are deduplicated, analyzed and chunked,
and the knowledge base is rebuilt after each cycle.

The loop stops cleanly on SIGINT/SIGTERM; an in-flight cycle is allowed
to finish.

Example:
  curator run
  curator run --once
  curator run --config ./curator.yaml -v`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single ingestion cycle and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured; add sources to the config file (see 'curator config init')")
	}

	svc := pipeline.NewService(cfg)

	if verbose {
		svc.OnCycle(printCycle)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		if cfg.Store.SnapshotPath != "" {
			if err := svc.Store().Load(cfg.Store.SnapshotPath); err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
		}

		report := svc.RunOnce(ctx)
		printCycle(report)

		if cfg.Store.SnapshotPath != "" {
			if err := svc.Store().Save(cfg.Store.SnapshotPath); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
		}
		return nil
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Starting scheduler with %d source(s)\n", len(cfg.Sources))
	}

	return svc.Run(ctx)
}

// printCycle summarizes one cycle report on stderr
func printCycle(report *model.CycleReport) {
	fmt.Fprintf(os.Stderr, "cycle finished in %s: fetched=%d stored=%d updated=%d duplicates=%d skipped=%d\n",
		report.Finished.Sub(report.Started).Round(time.Millisecond),
		report.Fetched, report.Stored, report.Updated, report.Duplicates, report.Skipped)

	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  source %s: %s\n", e.Source, e.Err)
	}
	if report.PartialFailure {
		fmt.Fprintln(os.Stderr, "  cycle partially failed: storage became unavailable")
	}
}
