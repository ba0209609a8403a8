// Package config loads the YAML configuration shared by the indexer, the
// search service and the analytics service, applies VSM_* environment
// overrides and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CollectionConfig describes the document collection and how its text is
// analyzed.
type CollectionConfig struct {
	Dir           string   `yaml:"dir"`
	StopWordsPath string   `yaml:"stopWordsPath"`
	Language      string   `yaml:"language"`
	Extensions    []string `yaml:"extensions"`
	Workers       int      `yaml:"workers"`
	TopWords      int      `yaml:"topWords"`
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// IndexConfig selects where the persisted index lives.
type IndexConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Name    string `yaml:"name"`
}

// SearchConfig controls result limits and pseudo-relevance feedback.
type SearchConfig struct {
	MaxResults    int           `yaml:"maxResults"`
	DefaultLimit  int           `yaml:"defaultLimit"`
	FeedbackDocs  int           `yaml:"feedbackDocs"`
	FeedbackTerms int           `yaml:"feedbackTerms"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server settings. RateLimit is requests per second
// per client address; zero disables limiting.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"`
	RateBurst       int           `yaml:"rateBurst"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
	IndexEvents  string `yaml:"indexEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls the asynchronous event collector.
// SnapshotInterval > 0 makes the analytics service persist its aggregate
// to PostgreSQL at that period.
type AnalyticsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BufferSize       int           `yaml:"bufferSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	BatchSize        int           `yaml:"batchSize"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	TopQueries       int           `yaml:"topQueries"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Collection: CollectionConfig{
			Dir:           "collection",
			StopWordsPath: "StopWords.txt",
			Language:      "spanish",
			Extensions:    []string{".html", ".htm"},
			Workers:       4,
			TopWords:      5,
		},
		Index: IndexConfig{
			Backend: BackendFile,
			Path:    "data/index.vsmx",
			Name:    "default",
		},
		Search: SearchConfig{
			MaxResults:    100,
			DefaultLimit:  10,
			FeedbackDocs:  3,
			FeedbackTerms: 5,
			Timeout:       5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateBurst:       20,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vsmsearch",
			User:            "vsmsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vsm-analytics",
			Topics: KafkaTopics{
				SearchEvents: "vsm.search-events",
				IndexEvents:  "vsm.index-events",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			Enabled:       false,
			BufferSize:    1024,
			FlushInterval: 2 * time.Second,
			BatchSize:     100,
			TopQueries:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var problems []string
	if c.Collection.Workers <= 0 {
		problems = append(problems, "collection.workers must be positive")
	}
	if len(c.Collection.Extensions) == 0 {
		problems = append(problems, "collection.extensions must not be empty")
	}
	if c.Collection.TopWords < 0 {
		problems = append(problems, "collection.topWords must not be negative")
	}
	switch c.Index.Backend {
	case BackendFile:
		if c.Index.Path == "" {
			problems = append(problems, "index.path is required for the file backend")
		}
	case BackendPostgres:
		if c.Index.Name == "" {
			problems = append(problems, "index.name is required for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("index.backend %q is not one of file, postgres", c.Index.Backend))
	}
	if c.Search.MaxResults <= 0 {
		problems = append(problems, "search.maxResults must be positive")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxResults {
		problems = append(problems, "search.defaultLimit must be between 1 and search.maxResults")
	}
	if c.Search.FeedbackDocs < 0 || c.Search.FeedbackTerms < 0 {
		problems = append(problems, "search feedback counts must not be negative")
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateBurst <= 0) {
		problems = append(problems, "server.rateLimit must not be negative and needs a positive server.rateBurst")
	}
	if c.Analytics.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "analytics requires kafka.brokers")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// applyEnvOverrides reads VSM_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VSM_COLLECTION_DIR"); v != "" {
		cfg.Collection.Dir = v
	}
	if v := os.Getenv("VSM_COLLECTION_STOPWORDS"); v != "" {
		cfg.Collection.StopWordsPath = v
	}
	if v := os.Getenv("VSM_COLLECTION_LANGUAGE"); v != "" {
		cfg.Collection.Language = v
	}
	if v := os.Getenv("VSM_COLLECTION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Collection.Workers = n
		}
	}
	if v := os.Getenv("VSM_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("VSM_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("VSM_INDEX_NAME"); v != "" {
		cfg.Index.Name = v
	}
	if v := os.Getenv("VSM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VSM_SERVER_RATE_LIMIT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = r
		}
	}
	if v := os.Getenv("VSM_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VSM_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("VSM_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VSM_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VSM_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VSM_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("VSM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VSM_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("VSM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VSM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VSM_ANALYTICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = b
		}
	}
	if v := os.Getenv("VSM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VSM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
