// Package config loads and validates irkit configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Corpus, Index, Ranking, Search, Postgres, Kafka, etc.).
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
	Corpus   CorpusConfig   `yaml:"corpus"`
	Index    IndexConfig    `yaml:"index"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CorpusConfig describes where raw documents come from and how they are
// normalized into tokens.
type CorpusConfig struct {
	CSVPath   string `yaml:"csvPath"`
	Column    string `yaml:"column"`
	Dir       string `yaml:"dir"`
	Glob      string `yaml:"glob"`
	Stem      bool   `yaml:"stem"`
	StopWords bool   `yaml:"stopWords"`
	MinLength int    `yaml:"minLength"`
}

// IndexConfig controls where indexes are persisted and how many workers the
// build fans out to.
type IndexConfig struct {
	DataDir string `yaml:"dataDir"`
	Workers int    `yaml:"workers"`
}

// RankingConfig holds the BM25 constants and the default scoring model.
type RankingConfig struct {
	K1    float64 `yaml:"k1"`
	B     float64 `yaml:"b"`
	Model string  `yaml:"model"`
}

// SearchConfig controls query-time limits.
type SearchConfig struct {
	DefaultTopK    int           `yaml:"defaultTopK"`
	MaxTopK        int           `yaml:"maxTopK"`
	SnippetTokens  int           `yaml:"snippetTokens"`
	ExpandTopDocs  int           `yaml:"expandTopDocs"`
	ExpandAddTerms int           `yaml:"expandAddTerms"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters for evaluation
// report storage.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
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

// KafkaConfig holds broker and topic settings for build notifications.
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	IndexComplete string   `yaml:"indexComplete"`
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

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
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
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config suitable for local use.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Column:    "Article",
			Glob:      "**/*.txt",
			Stem:      true,
			StopWords: true,
			MinLength: 1,
		},
		Index: IndexConfig{
			DataDir: "models",
			Workers: 4,
		},
		Ranking: RankingConfig{
			K1:    1.5,
			B:     0.75,
			Model: "bm25",
		},
		Search: SearchConfig{
			DefaultTopK:    10,
			MaxTopK:        1000,
			SnippetTokens:  30,
			ExpandTopDocs:  5,
			ExpandAddTerms: 5,
			Timeout:        30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "irkit",
			User:            "irkit",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			IndexComplete: "index.complete",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate rejects configurations the index builder cannot work with.
func (c *Config) Validate() error {
	if c.Ranking.K1 < 0 {
		return fmt.Errorf("ranking.k1 must be >= 0, got %v", c.Ranking.K1)
	}
	if c.Ranking.B < 0 || c.Ranking.B > 1 {
		return fmt.Errorf("ranking.b must be within [0,1], got %v", c.Ranking.B)
	}
	switch c.Ranking.Model {
	case "bm25", "tfidf":
	default:
		return fmt.Errorf("ranking.model must be bm25 or tfidf, got %q", c.Ranking.Model)
	}
	if c.Index.DataDir == "" {
		return fmt.Errorf("index.dataDir must not be empty")
	}
	if c.Search.MaxTopK > 0 && c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.defaultTopK %d exceeds search.maxTopK %d", c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Index.Workers < 1 {
		c.Index.Workers = 1
	}
	return nil
}

// applyEnvOverrides reads IR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IR_DATA_DIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("IR_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv("IR_RANKING_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.K1 = f
		}
	}
	if v := os.Getenv("IR_RANKING_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Ranking.B = f
		}
	}
	if v := os.Getenv("IR_RANKING_MODEL"); v != "" {
		cfg.Ranking.Model = v
	}
	if v := os.Getenv("IR_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	if v := os.Getenv("IR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("IR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("IR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("IR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("IR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("IR_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("IR_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("IR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("IR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
