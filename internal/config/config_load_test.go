package config

import (
	"testing"
	"time"
)

func TestLoadFromArgs_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromArgs("casedocs", []string{"--template-dir=" + dir})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("Mode = %v, want stdio", cfg.Mode)
	}
	if cfg.TemplateDir != dir {
		t.Errorf("TemplateDir = %v, want %v", cfg.TemplateDir, dir)
	}
	if cfg.StoreKind != StoreMemory {
		t.Errorf("StoreKind = %v, want memory", cfg.StoreKind)
	}
}

func TestLoadFromArgs_ValidFlags(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("got mode=%s host=%s port=%d", cfg.Mode, cfg.Host, cfg.Port)
				}
			},
		},
		{
			name: "rendering options",
			args: []string{"--no-sandbox", "--converter-path=/opt/lo/soffice", "--render-timeout=15s", "--page-format=a4"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.NoSandbox {
					t.Error("NoSandbox should be true")
				}
				if cfg.ConverterPath != "/opt/lo/soffice" {
					t.Errorf("ConverterPath = %s", cfg.ConverterPath)
				}
				if cfg.RenderTimeout != 15*time.Second {
					t.Errorf("RenderTimeout = %s", cfg.RenderTimeout)
				}
				if cfg.PageFormat != "a4" {
					t.Errorf("PageFormat = %s", cfg.PageFormat)
				}
			},
		},
		{
			name: "postgres store",
			args: []string{"--store=postgres", "--database-dsn=postgres://localhost/cases?sslmode=disable"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.StoreKind != StorePostgres || cfg.DatabaseDSN == "" {
					t.Errorf("store=%s dsn=%s", cfg.StoreKind, cfg.DatabaseDSN)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--template-dir=" + dir}, tt.args...)
			cfg, err := LoadFromArgs("casedocs", args)
			if err != nil {
				t.Fatalf("LoadFromArgs() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromArgs_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CASEDOCS_CONVERTER_PATH", "/usr/lib/libreoffice/program/soffice")
	t.Setenv("CASEDOCS_NO_SANDBOX", "true")
	t.Setenv("CASEDOCS_CONVERT_TIMEOUT", "2m")

	cfg, err := LoadFromArgs("casedocs", []string{"--template-dir=" + dir})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.ConverterPath != "/usr/lib/libreoffice/program/soffice" {
		t.Errorf("ConverterPath = %s", cfg.ConverterPath)
	}
	if !cfg.NoSandbox {
		t.Error("NoSandbox should come from the environment")
	}
	if cfg.ConvertTimeout != 2*time.Minute {
		t.Errorf("ConvertTimeout = %s", cfg.ConvertTimeout)
	}
}

func TestLoadFromArgs_FlagBeatsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CASEDOCS_PAGE_FORMAT", "legal")

	cfg, err := LoadFromArgs("casedocs", []string{"--template-dir=" + dir, "--page-format=a4"})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.PageFormat != "a4" {
		t.Errorf("PageFormat = %s, want a4", cfg.PageFormat)
	}
}

func TestLoadFromArgs_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"invalid mode", []string{"--mode=invalid"}},
		{"invalid store", []string{"--store=mongo"}},
		{"unknown flag", []string{"--frobnicate"}},
		{"bad duration", []string{"--render-timeout=soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--template-dir=" + dir}, tt.args...)
			if _, err := LoadFromArgs("casedocs", args); err == nil {
				t.Error("LoadFromArgs() expected error")
			}
		})
	}
}
