// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Routing       RoutingConfig           `mapstructure:"routing"`
	Embeddings    EmbeddingsConfig        `mapstructure:"embeddings"`
	Sweep         SweepConfig             `mapstructure:"sweep"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	RegistryPath  string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
	Index      string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Routing Configuration ---

// RoutingConfig holds the scoring weights and eligibility rules for the
// routing decision engine.
type RoutingConfig struct {
	Weights ScoringWeights `mapstructure:"weights"`

	// Alpha blends relevance against capacity in the final score.
	Alpha float64 `mapstructure:"alpha"`

	// Epsilon is the tie-break tolerance on final scores.
	Epsilon float64 `mapstructure:"epsilon"`

	// WorkloadThresholds maps organization id to the open-ticket count at
	// which a candidate is considered saturated. The "default" key applies
	// when an organization has no explicit entry.
	WorkloadThresholds map[string]int `mapstructure:"workload_thresholds"`

	// MinTeamSize is the active-member count below which team capacity is
	// penalized.
	MinTeamSize int `mapstructure:"min_team_size"`

	// IncludeUnmatchedDomainAgents extends agent eligibility to active agents
	// holding a knowledge domain named after a ticket tag, even when none of
	// their teams share a tag with the ticket.
	IncludeUnmatchedDomainAgents bool `mapstructure:"include_unmatched_domain_agents"`

	// MaxAlternatives caps the ranked alternatives recorded with a decision.
	MaxAlternatives int `mapstructure:"max_alternatives"`

	// SimilarTopK is the number of similar resolved tickets retrieved per route.
	SimilarTopK int `mapstructure:"similar_top_k"`

	// WorkloadCacheTTL is the Redis cache lifetime for open-ticket counts,
	// in milliseconds.
	WorkloadCacheTTL int `mapstructure:"workload_cache_ttl"`
}

// ScoringWeights holds the relevance sub-score weights. They must sum to 1.
type ScoringWeights struct {
	TagMatch       float64 `mapstructure:"tag_match"`
	DomainMatch    float64 `mapstructure:"domain_match"`
	SimilarOverlap float64 `mapstructure:"similar_overlap"`
}

// ThresholdFor returns the workload threshold for an organization,
// falling back to the "default" entry.
func (r RoutingConfig) ThresholdFor(orgID string) int {
	if t, ok := r.WorkloadThresholds[orgID]; ok && t > 0 {
		return t
	}
	return r.WorkloadThresholds["default"]
}

// EmbeddingsConfig holds settings for the text-embedding provider.
type EmbeddingsConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// SweepConfig holds settings for the periodic unassigned-ticket sweep.
type SweepConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Interval    int  `mapstructure:"interval"`    // milliseconds
	Concurrency int  `mapstructure:"concurrency"` // bounded worker pool size
	BatchSize   int  `mapstructure:"batch_size"`
}

// NotificationConfig holds settings for the assignment notification dispatcher.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Email   struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
