package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredpottier/kbgraph/internal/pipeline"
)

var (
	ingestConcurrency int
	ingestTimeout     time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <documents.json>",
	Short: "Ingest extracted documents into the knowledge base",
	Long: `Ingest reads documents (a JSON object or array of objects, each carrying
its extracted claims) and feeds them through the engine:
- resolve subject mentions to canonical subjects
- append raw claims, keyed by content fingerprint (replays are no-ops)
- fold qualifier values into the applicability axes

Documents are processed in parallel; ambiguous or rejected subject mentions
skip only the affected claim and are reported at the end.

Example:
  kbgraph ingest documents.json
  kbgraph ingest documents.json --tenant acme --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent ingestion workers")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total timeout for the ingestion batch")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestConcurrency > 0 {
		cfg.Concurrency.IngestWorkers = ingestConcurrency
	}

	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	processor := pipeline.NewBatchProcessor(engine, cfg.Concurrency.IngestWorkers)
	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	appended, duplicates, skipped, failures := 0, 0, 0, 0
	for _, result := range results {
		if result.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.DocumentID, result.Err)
			continue
		}
		appended += result.Report.Appended
		duplicates += result.Report.Duplicates
		skipped += len(result.Report.Skipped)
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: %d appended, %d duplicates, axes %v\n",
				result.DocumentID, result.Report.Appended,
				result.Report.Duplicates, result.Report.AxesUpdated)
		}
		for _, skip := range result.Report.Skipped {
			fmt.Fprintf(os.Stderr, "  skipped %q (%s): %s\n", skip.Subject, skip.Status, skip.Reason)
		}
	}

	fmt.Fprintf(os.Stderr, "\nDocuments: %d  Claims appended: %d  Duplicates: %d  Skipped: %d  Failures: %d\n",
		len(results), appended, duplicates, skipped, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(results))
	}
	return nil
}
