package config

import (
	"errors"
	"testing"
)

func validConfig() *Config {
	return &Config{
		DataDir:      "./data",
		DocumentsDir: "./documents",
		OllamaHost:   "http://localhost:11434",
		HTTPAddr:     "127.0.0.1:8321",
		LogLevel:     "info",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrInvalidDataDir,
		},
		{
			name:    "empty http addr",
			mutate:  func(c *Config) { c.HTTPAddr = "" },
			wantErr: ErrInvalidHTTPAddr,
		},
		{
			name:    "ollama host without scheme",
			mutate:  func(c *Config) { c.OllamaHost = "localhost:11434" },
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "ollama host bad scheme",
			mutate:  func(c *Config) { c.OllamaHost = "ftp://localhost:11434" },
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "ollama host empty",
			mutate:  func(c *Config) { c.OllamaHost = "" },
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "https ollama host is valid",
			mutate:  func(c *Config) { c.OllamaHost = "https://ollama.internal:11434" },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		var cfg *Config
		if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
			t.Errorf("Validate() error = %v, want ErrConfigNil", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	// Run in a temp dir so a developer's config.yaml does not leak in.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.OllamaHost != DefaultOllamaHost {
		t.Errorf("OllamaHost = %q, want %q", cfg.OllamaHost, DefaultOllamaHost)
	}
	if !cfg.Hierarchical {
		t.Error("Hierarchical default should be true")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOCSAGE_OLLAMA_HOST", "http://ollama.example:11434")
	t.Setenv("DOCSAGE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OllamaHost != "http://ollama.example:11434" {
		t.Errorf("OllamaHost = %q, env override not applied", cfg.OllamaHost)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, env override not applied", cfg.LogLevel)
	}
}
