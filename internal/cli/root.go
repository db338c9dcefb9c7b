package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/cache"
	"github.com/fredpottier/kbgraph/internal/embed"
	"github.com/fredpottier/kbgraph/internal/logging"
	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/pipeline"
	"github.com/fredpottier/kbgraph/internal/store"
)

var (
	cfgFile string
	tenant  string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kbgraph",
	Short: "kbgraph - claim aggregation and temporal consistency engine",
	Long: `kbgraph merges claims extracted from many documents into a consistent,
versioned knowledge base.

It resolves subject mentions to canonical identities, clusters equivalent
claims across documents, consolidates them into canonical claims with
maturity labels, infers ordering over contextual axes (versions, editions),
and decides which document is current under a declared policy.

When evidence is ambiguous, kbgraph abstains and says so rather than guess.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("kbgraph v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.kbgraph/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "default", "tenant the command operates on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.kbgraph")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match KBGRAPH_*
	viper.SetEnvPrefix("KBGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, and environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// buildEngine assembles the engine over the configured backends. The
// returned cleanup closes whatever was opened.
func buildEngine(ctx context.Context, cfg *model.Config) (*pipeline.Engine, func(), error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		_ = log.Sync()
	}

	mem := store.NewMemoryStore()
	stores := pipeline.Stores{Subjects: mem, Claims: mem, Graph: mem}

	if cfg.Storage.ClaimDB != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.ClaimDB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open claim database: %w", err)
		}
		cleanups = append(cleanups, func() { _ = db.Close() })
		stores.Subjects = db
		stores.Claims = db
	}

	if cfg.Storage.Neo4jURI != "" {
		graph, err := store.NewNeo4jStore(ctx, cfg.Storage, log)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect graph store: %w", err)
		}
		cleanups = append(cleanups, func() { _ = graph.Close(context.Background()) })
		stores.Graph = graph
	}

	ttl := time.Duration(cfg.Embedding.CacheTTLSeconds) * time.Second
	provider, err := embed.NewProvider(cfg.Embedding, cache.NewMemoryCache(ttl, ttl))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("initialize embedding provider: %w", err)
	}
	if provider == nil && verbose {
		fmt.Fprintln(os.Stderr, "No embedding provider configured; resolution and clustering run lexical-only")
	}

	engine := pipeline.NewEngine(cfg, stores, provider, log)
	log.Debug("engine assembled",
		zap.Bool("sqlite", cfg.Storage.ClaimDB != ""),
		zap.Bool("neo4j", cfg.Storage.Neo4jURI != ""),
		zap.Bool("embeddings", provider != nil))
	return engine, cleanup, nil
}
