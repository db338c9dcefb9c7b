package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a raw subject mention to a canonical subject",
	Long: `Resolve maps one raw subject mention through the resolution stages:
exact normalized match, learned alias, embedding similarity, and finally
creation of a new subject if the name passes the validity filter.

An ambiguous mention links nothing and lists the competing candidates.

Example:
  kbgraph resolve "S/4 Cloud Public" --tenant acme`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	result, err := engine.ResolveSubject(ctx, tenant, args[0])
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
