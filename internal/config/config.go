// Package config provides configuration management for Attune.
// It loads settings from environment variables with the ATTUNE_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Attune engine.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Classifier ClassifierConfig
	Embedding  EmbeddingConfig
	Engine     EngineConfig
	Knowledge  KnowledgeConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port      int     // Server port (default: 7070)
	Host      string  // Server host (default: 127.0.0.1)
	APIToken  string  // Bearer token for the API; empty disables auth
	RateLimit float64 // Inbound requests per second per client (default: 20)
	RateBurst int     // Inbound rate-limit burst (default: 40)
}

// StorageConfig contains long-term store configuration.
type StorageConfig struct {
	Engine      string // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string // Path to data directory (default: ./data)
	PostgresDSN string // PostgreSQL connection string when Engine is postgres
}

// ClassifierConfig configures the optional external emotion classifier.
type ClassifierConfig struct {
	URL       string        // Classifier base URL; empty disables the classifier
	Model     string        // Model name sent with classify requests
	Timeout   time.Duration // Per-call timeout (default: 300ms)
	RateLimit float64       // Outbound calls per second (default: 20)
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string  // Provider: local, http (default: local)
	URL       string  // Embedding API URL for the http provider
	Model     string  // Embedding model name (default: nomic-embed-text)
	Dimension int     // Embedding width for the http provider (default: 768)
	CacheSize int     // LRU cache entries (default: 1024)
	RateLimit float64 // Outbound calls per second (default: 10)
}

// EngineConfig tunes the orchestrator and memory model.
type EngineConfig struct {
	ShortTermWindow   int           // Short-term buffer size in turns (default: 100)
	ConsolidateEvery  int           // Consolidation check interval in turns (default: 5)
	InactivityTimeout time.Duration // Conversation inactivity timeout (default: 30m)
	RetentionDays     int           // Long-term retention horizon (default: 365)
	RetrieveK         int           // Memories per context bundle (default: 5)
	ConceptCap        int           // Tracked concepts per user (default: 512)
	MaxTextLen        int           // Max accepted turn text in bytes (default: 4096)
}

// KnowledgeConfig configures the knowledge catalog.
type KnowledgeConfig struct {
	OverlayPath string // Optional YAML catalog overlay file
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the ATTUNE_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnvInt("ATTUNE_PORT", 7070),
			Host:      getEnv("ATTUNE_HOST", "127.0.0.1"),
			APIToken:  getEnv("ATTUNE_API_TOKEN", ""),
			RateLimit: getEnvFloat("ATTUNE_RATE_LIMIT", 20),
			RateBurst: getEnvInt("ATTUNE_RATE_BURST", 40),
		},
		Storage: StorageConfig{
			Engine:      getEnv("ATTUNE_STORAGE_ENGINE", "sqlite"),
			DataPath:    getEnv("ATTUNE_DATA_PATH", "./data"),
			PostgresDSN: getEnv("ATTUNE_POSTGRES_DSN", ""),
		},
		Classifier: ClassifierConfig{
			URL:       getEnv("ATTUNE_CLASSIFIER_URL", ""),
			Model:     getEnv("ATTUNE_CLASSIFIER_MODEL", "emotion-english-distilroberta"),
			Timeout:   getEnvDuration("ATTUNE_CLASSIFIER_TIMEOUT", 300*time.Millisecond),
			RateLimit: getEnvFloat("ATTUNE_CLASSIFIER_RATE_LIMIT", 20),
		},
		Embedding: EmbeddingConfig{
			Provider:  getEnv("ATTUNE_EMBEDDING_PROVIDER", "local"),
			URL:       getEnv("ATTUNE_EMBEDDING_URL", "http://localhost:11434"),
			Model:     getEnv("ATTUNE_EMBEDDING_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("ATTUNE_EMBEDDING_DIMENSION", 768),
			CacheSize: getEnvInt("ATTUNE_EMBEDDING_CACHE_SIZE", 1024),
			RateLimit: getEnvFloat("ATTUNE_EMBEDDING_RATE_LIMIT", 10),
		},
		Engine: EngineConfig{
			ShortTermWindow:   getEnvInt("ATTUNE_SHORT_TERM_WINDOW", 100),
			ConsolidateEvery:  getEnvInt("ATTUNE_CONSOLIDATE_EVERY", 5),
			InactivityTimeout: getEnvDuration("ATTUNE_INACTIVITY_TIMEOUT", 30*time.Minute),
			RetentionDays:     getEnvInt("ATTUNE_RETENTION_DAYS", 365),
			RetrieveK:         getEnvInt("ATTUNE_RETRIEVE_K", 5),
			ConceptCap:        getEnvInt("ATTUNE_CONCEPT_CAP", 512),
			MaxTextLen:        getEnvInt("ATTUNE_MAX_TEXT_LEN", 4096),
		},
		Knowledge: KnowledgeConfig{
			OverlayPath: getEnv("ATTUNE_CATALOG_OVERLAY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be fixed up with defaults.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}

	switch c.Storage.Engine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: ATTUNE_POSTGRES_DSN is required for the postgres storage engine")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}

	switch c.Embedding.Provider {
	case "local", "http":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}

	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "300ms", "30m") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
