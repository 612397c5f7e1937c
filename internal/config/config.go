// Package config loads the mosaic configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mosaic configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Index     IndexConfig     `yaml:"index,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`
	Share     ShareConfig     `yaml:"share,omitempty"`
}

// StorageConfig locates the storage root and the catalog database.
type StorageConfig struct {
	// Root is the directory uploaded files live under. Records reference
	// files relative to it so the store stays relocatable.
	Root string `yaml:"root,omitempty"`

	// DatabasePath is the catalog SQLite file. Empty derives it from
	// DataDir; "memory" keeps the catalog in process memory.
	DatabasePath string `yaml:"database_path,omitempty"`
}

// IndexConfig selects and tunes the nearest-neighbor index.
type IndexConfig struct {
	Kind           string `yaml:"kind,omitempty"` // "flat" (default) or "hnsw"
	M              int    `yaml:"m,omitempty"`
	EfConstruction int    `yaml:"ef_construction,omitempty"`
	EfSearch       int    `yaml:"ef_search,omitempty"`
}

// EmbeddingConfig selects the text embedding provider.
type EmbeddingConfig struct {
	Provider string        `yaml:"provider,omitempty"` // "hash" (default), "tfidf", "ollama"
	Dims     int           `yaml:"dims,omitempty"`
	Ollama   *OllamaConfig `yaml:"ollama,omitempty"`
}

// OllamaConfig holds settings for the remote embedding provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // Default http://localhost:11434
	Model string `yaml:"model,omitempty"` // Default nomic-embed-text
	Dims  int    `yaml:"dims,omitempty"`  // Must match the model output
}

// ShareConfig configures the capability-token gateway.
type ShareConfig struct {
	// BaseURL prefixes share links embedded in QR codes.
	BaseURL string `yaml:"base_url,omitempty"`

	// TokenTTL bounds share-token lifetime. Zero means tokens never
	// expire.
	TokenTTL Duration `yaml:"token_ttl,omitempty"`

	// Persistent stores tokens in SQLite so share links survive process
	// restarts. Off by default: a restart invalidates outstanding links.
	Persistent bool `yaml:"persistent,omitempty"`

	// DatabasePath is the token SQLite file. Empty derives it from the
	// catalog database path.
	DatabasePath string `yaml:"database_path,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration file. Values support ${ENV_VAR}
// expansion.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = filepath.Join(c.DataDir, "uploads")
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = filepath.Join(c.DataDir, "catalog.db")
	}
	if c.Index.Kind == "" {
		c.Index.Kind = "flat"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hash"
	}
	if c.Embedding.Ollama != nil {
		if c.Embedding.Ollama.Host == "" {
			c.Embedding.Ollama.Host = "http://localhost:11434"
		}
		if c.Embedding.Ollama.Model == "" {
			c.Embedding.Ollama.Model = "nomic-embed-text"
		}
	}
	if c.Share.BaseURL == "" {
		c.Share.BaseURL = "http://localhost:5001"
	}
	if c.Share.DatabasePath == "" {
		c.Share.DatabasePath = DeriveTokenDBPath(c.Storage.DatabasePath)
	}
}

func (c *Config) validate() error {
	switch c.Index.Kind {
	case "flat", "hnsw":
	default:
		return fmt.Errorf("config: unknown index kind %q", c.Index.Kind)
	}
	switch c.Embedding.Provider {
	case "hash", "tfidf":
	case "ollama":
		if c.Embedding.Ollama == nil {
			return fmt.Errorf("config: embedding provider ollama requires an ollama section")
		}
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like "24h"
// as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DeriveTokenDBPath returns a token DB path derived from the catalog DB
// path. For example, "catalog.db" becomes "catalog.tokens.db".
func DeriveTokenDBPath(catalogDBPath string) string {
	ext := filepath.Ext(catalogDBPath)
	base := strings.TrimSuffix(catalogDBPath, ext)
	if ext == "" {
		ext = ".db"
	}
	return base + ".tokens" + ext
}
