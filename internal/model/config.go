package model

// Config holds every tunable the engine exposes. The heuristic constants are
// deliberately configuration, not law: the defaults mirror the values the
// engine was calibrated with, and deployments may tighten them.
type Config struct {
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Cluster     ClusterConfig     `yaml:"cluster" mapstructure:"cluster"`
	Consolidate ConsolidateConfig `yaml:"consolidate" mapstructure:"consolidate"`
	Latest      SelectionPolicy   `yaml:"latest" mapstructure:"latest"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ResolverConfig tunes the Subject Resolver.
type ResolverConfig struct {
	// SimilarityThreshold is the minimum embedding similarity for a match.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// SimilarityDelta is the minimum lead over the second-best candidate.
	// Below it the resolution is AMBIGUOUS even when the top score is high.
	SimilarityDelta float64 `yaml:"similarity_delta" mapstructure:"similarity_delta"`

	// SuggestThreshold marks near-misses: when a new subject is created but
	// an existing one scored at least this high, the pair is recorded as a
	// possible equivalent for human review.
	SuggestThreshold float64 `yaml:"suggest_threshold" mapstructure:"suggest_threshold"`

	// MinNameLength and MinWordCount gate creation of new subjects.
	MinNameLength int `yaml:"min_name_length" mapstructure:"min_name_length"`
	MinWordCount  int `yaml:"min_word_count" mapstructure:"min_word_count"`

	// GenericTerms lists names too generic to become subjects on their own.
	GenericTerms []string `yaml:"generic_terms" mapstructure:"generic_terms"`
}

// ClusterConfig tunes the Claim Clusterer.
type ClusterConfig struct {
	EmbeddingThreshold float64 `yaml:"embedding_threshold" mapstructure:"embedding_threshold"`
	JaccardThreshold   float64 `yaml:"jaccard_threshold" mapstructure:"jaccard_threshold"`

	// MaxClusterSize caps a cluster; overflow members are trimmed and may
	// seed other clusters.
	MaxClusterSize int `yaml:"max_cluster_size" mapstructure:"max_cluster_size"`
}

// ConsolidateConfig tunes the Claim Consolidator.
type ConsolidateConfig struct {
	// NumericTolerance is the relative difference above which two numeric
	// values count as inconsistent (0.05 = 5% of the larger).
	NumericTolerance float64 `yaml:"numeric_tolerance" mapstructure:"numeric_tolerance"`

	// ConditionalFraction is the share of conditional claims above which a
	// group is CONTEXT_DEPENDENT.
	ConditionalFraction float64 `yaml:"conditional_fraction" mapstructure:"conditional_fraction"`

	// MaxSources caps cited sources per canonical claim.
	MaxSources int `yaml:"max_sources" mapstructure:"max_sources"`
}

// EmbeddingConfig configures the injected embedding capability.
type EmbeddingConfig struct {
	// Provider is "openai" or "" (disabled; clustering falls back to
	// lexical similarity).
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds each embedding call; on expiry the caller falls
	// back to lexical matching rather than failing.
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`

	// RatePerSecond and Burst throttle calls per tenant.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`

	// CacheTTLSeconds bounds how long computed vectors stay cached.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
}

// StorageConfig configures the claim and graph stores. Empty values select
// the in-memory stores.
type StorageConfig struct {
	// ClaimDB is the sqlite path for raw claims and subjects.
	ClaimDB string `yaml:"claim_db" mapstructure:"claim_db"`

	Neo4jURI      string `yaml:"neo4j_uri" mapstructure:"neo4j_uri"`
	Neo4jUser     string `yaml:"neo4j_user" mapstructure:"neo4j_user"`
	Neo4jPassword string `yaml:"neo4j_password" mapstructure:"neo4j_password"`
	Neo4jDatabase string `yaml:"neo4j_database" mapstructure:"neo4j_database"`
}

// ConcurrencyConfig sizes the ingestion worker pool.
type ConcurrencyConfig struct {
	IngestWorkers int `yaml:"ingest_workers" mapstructure:"ingest_workers"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			SimilarityThreshold: 0.85,
			SimilarityDelta:     0.06,
			SuggestThreshold:    0.75,
			MinNameLength:       3,
			MinWordCount:        1,
			GenericTerms: []string{
				"system", "service", "product", "solution", "platform",
				"application", "tool", "module", "component", "feature",
				"document", "overview", "introduction", "general", "misc",
			},
		},
		Cluster: ClusterConfig{
			EmbeddingThreshold: 0.85,
			JaccardThreshold:   0.3,
			MaxClusterSize:     50,
		},
		Consolidate: ConsolidateConfig{
			NumericTolerance:    0.05,
			ConditionalFraction: 0.7,
			MaxSources:          5,
		},
		Latest: DefaultPolicy(),
		Embedding: EmbeddingConfig{
			Provider:        "",
			Model:           "text-embedding-3-small",
			TimeoutSeconds:  10,
			RatePerSecond:   5,
			Burst:           10,
			CacheTTLSeconds: 3600,
		},
		Concurrency: ConcurrencyConfig{
			IngestWorkers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
