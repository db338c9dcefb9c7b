package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var consolidateTimeout time.Duration

// consolidateCmd represents the consolidate command
var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Recompute canonical claims from the raw claim log",
	Long: `Consolidate groups the tenant's raw claims by (subject, kind, scope) and
recomputes one canonical claim per group with a maturity label:

  CANDIDATE          single source, no conflict
  VALIDATED          two or more documents agree
  CONFLICTING        sources disagree on the value
  CONTEXT_DEPENDENT  mostly conditional assertions
  SUPERSEDED         a version hint orders an older value behind a newer one

The projection is idempotent: re-running on an unchanged claim log produces
identical output.

Example:
  kbgraph consolidate --tenant acme`,
	Args: cobra.NoArgs,
	RunE: runConsolidate,
}

// clusterCmd represents the cluster command
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group equivalent claims across documents",
	Long: `Cluster groups raw claims that assert the same fact across at least two
documents. Clustering is conservative: claims merge only when similar text,
overlapping entities, matching modality, and matching polarity all agree.

Example:
  kbgraph cluster --tenant acme`,
	Args: cobra.NoArgs,
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(clusterCmd)

	consolidateCmd.Flags().DurationVar(&consolidateTimeout, "timeout", 5*time.Minute, "timeout for the recomputation")
	clusterCmd.Flags().DurationVar(&consolidateTimeout, "timeout", 5*time.Minute, "timeout for the clustering run")
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), consolidateTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	canonical, err := engine.ConsolidateClaims(ctx, tenant)
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}

	out, err := json.MarshalIndent(canonical, "", "  ")
	if err != nil {
		return fmt.Errorf("encode canonical claims: %w", err)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "\n%d canonical claims\n", len(canonical))
	return nil
}

func runCluster(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), consolidateTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := engine.ClusterClaims(ctx, tenant)
	if err != nil {
		return fmt.Errorf("cluster: %w", err)
	}

	out, err := json.MarshalIndent(result.Clusters, "", "  ")
	if err != nil {
		return fmt.Errorf("encode clusters: %w", err)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "\n%d clusters, %d unclustered, %d skipped\n",
		len(result.Clusters), len(result.Unclustered), result.Skipped)
	return nil
}
