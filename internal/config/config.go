// Package config provides docsage configuration management.
//
// Two kinds of configuration live here and they are deliberately separate:
//
//   - Config: process configuration (data directory, Ollama host, HTTP address,
//     logging, chunking mode). Loaded once at startup from file, environment,
//     and defaults via Viper. Immutable for the process lifetime.
//
//   - Models: the active generation and embedding model selection. This is
//     runtime-mutable admin state persisted as models.json inside the data
//     directory. Pipelines re-read it on every invocation, so an update takes
//     effect on the next query or ingestion run, never retroactively.
//
// Configuration sources for Config, highest priority first:
//  1. Environment variables (DOCSAGE_*)
//  2. Config file (config.yaml in the data directory or current directory)
//  3. Defaults
//
// Error Handling: sentinel errors checked with errors.Is; a corrupt models.json
// is fatal (ErrModelsCorrupt) because it indicates external tampering, while a
// missing one is silently created with defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidDataDir indicates the data directory path is empty or unusable.
	ErrInvalidDataDir = errors.New("invalid data directory")

	// ErrInvalidOllamaHost indicates the Ollama host is not a valid URL.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidHTTPAddr indicates the HTTP listen address is empty.
	ErrInvalidHTTPAddr = errors.New("invalid HTTP listen address")
)

// Defaults for the process configuration.
const (
	// DefaultDataDir holds the vector store, JSON repositories, and lock file.
	DefaultDataDir = "./data"

	// DefaultDocumentsDir is the ingestion source folder.
	DefaultDocumentsDir = "./documents"

	// DefaultOllamaHost is the local Ollama server address.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultHTTPAddr binds the API server to localhost only.
	DefaultHTTPAddr = "127.0.0.1:8321"
)

// Config stores process-level configuration.
type Config struct {
	// DataDir contains models.json, blocked_terms.json, the activity logs,
	// the metrics series, and the chromem vector store.
	DataDir string `mapstructure:"data_dir"`

	// DocumentsDir is the default folder scanned by ingestion.
	DocumentsDir string `mapstructure:"documents_dir"`

	// OllamaHost is the address of the Ollama server used for both
	// embedding and generation.
	OllamaHost string `mapstructure:"ollama_host"`

	// HTTPAddr is the listen address for serve mode.
	HTTPAddr string `mapstructure:"http_addr"`

	// Hierarchical enables parent/child two-tier chunking. When false,
	// ingestion produces flat chunks from the layered splitter.
	Hierarchical bool `mapstructure:"hierarchical"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches log output to JSON format.
	LogJSON bool `mapstructure:"log_json"`
}

// Load reads configuration from file, environment, and defaults.
// A missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".docsage"))
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("documents_dir", DefaultDocumentsDir)
	v.SetDefault("ollama_host", DefaultOllamaHost)
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("hierarchical", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnv binds environment variable overrides explicitly.
func bindEnv(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("data_dir", "DOCSAGE_DATA_DIR")
	mustBind("documents_dir", "DOCSAGE_DOCUMENTS_DIR")
	mustBind("ollama_host", "DOCSAGE_OLLAMA_HOST")
	mustBind("http_addr", "DOCSAGE_HTTP_ADDR")
	mustBind("hierarchical", "DOCSAGE_HIERARCHICAL")
	mustBind("log_level", "DOCSAGE_LOG_LEVEL")
	mustBind("log_json", "DOCSAGE_LOG_JSON")
}

// Validate checks the configuration for obvious misconfiguration. Fail-fast:
// called from Load so a bad value stops startup, not the first request.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidDataDir)
	}

	if c.HTTPAddr == "" {
		return ErrInvalidHTTPAddr
	}

	u, err := url.Parse(c.OllamaHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidOllamaHost, c.OllamaHost)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidOllamaHost, u.Scheme)
	}

	return nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
