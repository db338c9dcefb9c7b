package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredpottier/kbgraph/internal/model"
)

// latestCmd represents the latest command
var latestCmd = &cobra.Command{
	Use:   "latest <candidates.json>",
	Short: "Decide which document candidate is current",
	Long: `Latest applies the configured selection policy to a set of document
candidates (a JSON array of {document_id, status, doc_type, authority,
axis_values}) using the tenant's stored axis orders.

The result either names a selected document with a justification, or sets
ask_user_needed - the selector never guesses.

Example:
  kbgraph latest candidates.json --tenant acme`,
	Args: cobra.ExactArgs(1),
	RunE: runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	var candidates []model.DocCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return fmt.Errorf("parse candidates: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	selection, err := engine.SelectLatest(ctx, tenant, candidates)
	if err != nil {
		return fmt.Errorf("select latest: %w", err)
	}

	out, err := json.MarshalIndent(selection, "", "  ")
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
