package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "casedocs" {
		t.Errorf("Expected default server name to be 'casedocs', got '%s'", cfg.ServerName)
	}
	if cfg.StoreKind != StoreMemory {
		t.Errorf("Expected default store to be memory, got '%s'", cfg.StoreKind)
	}
	if cfg.ConverterPath != "soffice" {
		t.Errorf("Expected default converter to be 'soffice', got '%s'", cfg.ConverterPath)
	}
	if cfg.NoSandbox {
		t.Error("Expected sandbox to be enabled by default")
	}
	if cfg.RenderTimeout != 60*time.Second {
		t.Errorf("Expected default render timeout 60s, got %s", cfg.RenderTimeout)
	}
	if cfg.PageFormat != "letter" {
		t.Errorf("Expected default page format 'letter', got '%s'", cfg.PageFormat)
	}
}

func validConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.TemplateDir = t.TempDir()
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid stdio config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid server config",
			mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 9090 },
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: "mode must be",
		},
		{
			name:    "invalid port in server mode",
			mutate:  func(c *Config) { c.Mode = ModeServer; c.Port = 70000 },
			wantErr: "port must be",
		},
		{
			name:    "same template names",
			mutate:  func(c *Config) { c.FillableTemplate = c.BaseTemplate },
			wantErr: "must differ",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.StoreKind = StorePostgres },
			wantErr: "database-dsn",
		},
		{
			name:    "http without url",
			mutate:  func(c *Config) { c.StoreKind = StoreHTTP },
			wantErr: "case-api-url",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.StoreKind = "mongo" },
			wantErr: "invalid store",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.FetchConcurrency = 0 },
			wantErr: "concurrency",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.RenderTimeout = 0 },
			wantErr: "timeouts",
		},
		{
			name:    "bad page format",
			mutate:  func(c *Config) { c.PageFormat = "tabloid" },
			wantErr: "page format",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_CreatesTemplateDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemplateDir = filepath.Join(t.TempDir(), "nested", "templates")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if _, err := filepath.Abs(cfg.TemplateDir); err != nil {
		t.Fatalf("template dir not usable: %v", err)
	}
}

func TestConfigPathsAndString(t *testing.T) {
	cfg := validConfig(t)
	cfg.DatabaseDSN = "postgres://user:secret@db/cases"

	if got := cfg.BaseTemplatePath(); got != filepath.Join(cfg.TemplateDir, "intake_form.pdf") {
		t.Errorf("BaseTemplatePath() = %s", got)
	}
	if got := cfg.FillableTemplatePath(); got != filepath.Join(cfg.TemplateDir, "intake_form_fillable.pdf") {
		t.Errorf("FillableTemplatePath() = %s", got)
	}
	if cfg.Address() != "127.0.0.1:8080" {
		t.Errorf("Address() = %s", cfg.Address())
	}
	if strings.Contains(cfg.String(), "secret") {
		t.Error("String() must not leak the database DSN")
	}
	if !cfg.IsStdioMode() || cfg.IsServerMode() || cfg.IsDebug() {
		t.Error("unexpected mode helpers for default config")
	}
}
