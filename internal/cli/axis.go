package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredpottier/kbgraph/internal/store"
)

var axisValues []string

// axisCmd represents the axis command
var axisCmd = &cobra.Command{
	Use:   "axis <key>",
	Short: "Show an applicability axis, or infer an order from values",
	Long: `Axis prints the stored ordering state of one contextual dimension
(e.g. "release" or "edition"): its known values, whether they form an
order, and with what confidence.

With --values, the stored state is ignored and order inference runs over
the given values directly.

Example:
  kbgraph axis release_id --tenant acme
  kbgraph axis release_id --values 2.0 --values 3.0 --values beta`,
	Args: cobra.ExactArgs(1),
	RunE: runAxis,
}

func init() {
	rootCmd.AddCommand(axisCmd)

	axisCmd.Flags().StringArrayVar(&axisValues, "values", nil, "infer over these values instead of stored state")
}

func runAxis(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	if len(axisValues) > 0 {
		inference := engine.InferAxisOrder(axisValues)
		out, err := json.MarshalIndent(inference, "", "  ")
		if err != nil {
			return fmt.Errorf("encode inference: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	ax, err := engine.Axis(ctx, tenant, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("axis %q has no observed values for tenant %q", args[0], tenant)
	}
	if err != nil {
		return fmt.Errorf("load axis: %w", err)
	}

	out, err := json.MarshalIndent(ax, "", "  ")
	if err != nil {
		return fmt.Errorf("encode axis: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
