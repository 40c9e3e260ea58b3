package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Case store kinds
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreHTTP     = "http"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultTemplateDir      = "templates"
	DefaultBaseTemplate     = "intake_form.pdf"
	DefaultFillableTemplate = "intake_form_fillable.pdf"
	DefaultConverterPath    = "soffice"
	DefaultRenderTimeout    = 60 * time.Second
	DefaultConvertTimeout   = 90 * time.Second
	DefaultFetchConcurrency = 4
	DefaultPageFormat       = "letter"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "CASEDOCS"
)

// Config holds all configuration for the case document server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Templates
	TemplateDir      string
	BaseTemplate     string
	FillableTemplate string

	// Case store
	StoreKind        string
	DatabaseDSN      string
	CaseAPIURL       string
	SeedDir          string
	FetchConcurrency int

	// Rendering
	ConverterPath  string
	ConvertTimeout time.Duration
	NoSandbox      bool
	BrowserBin     string
	RenderTimeout  time.Duration
	PageFormat     string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		TemplateDir:      DefaultTemplateDir,
		BaseTemplate:     DefaultBaseTemplate,
		FillableTemplate: DefaultFillableTemplate,
		StoreKind:        StoreMemory,
		FetchConcurrency: DefaultFetchConcurrency,
		ConverterPath:    DefaultConverterPath,
		ConvertTimeout:   DefaultConvertTimeout,
		RenderTimeout:    DefaultRenderTimeout,
		PageFormat:       DefaultPageFormat,
		Version:          "1.0.0",
		ServerName:       "casedocs",
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return LoadFromArgs(os.Args[0], os.Args[1:])
}

// LoadFromArgs parses args (without the program name) and the environment
func LoadFromArgs(program string, args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs, program)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	if cfg.TemplateDir != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDir); err == nil {
			cfg.TemplateDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("template-dir", cfg.TemplateDir)
	v.SetDefault("base-template", cfg.BaseTemplate)
	v.SetDefault("fillable-template", cfg.FillableTemplate)
	v.SetDefault("store", cfg.StoreKind)
	v.SetDefault("database-dsn", cfg.DatabaseDSN)
	v.SetDefault("case-api-url", cfg.CaseAPIURL)
	v.SetDefault("seed-dir", cfg.SeedDir)
	v.SetDefault("fetch-concurrency", cfg.FetchConcurrency)
	v.SetDefault("converter-path", cfg.ConverterPath)
	v.SetDefault("convert-timeout", cfg.ConvertTimeout)
	v.SetDefault("no-sandbox", cfg.NoSandbox)
	v.SetDefault("browser-bin", cfg.BrowserBin)
	v.SetDefault("render-timeout", cfg.RenderTimeout)
	v.SetDefault("page-format", cfg.PageFormat)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("log-format", cfg.LogFormat)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for SSE over HTTP")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("template-dir", cfg.TemplateDir, "Directory holding the base PDF template and its fillable variant")
	fs.String("base-template", cfg.BaseTemplate, "File name of the blank (non-fillable) intake template")
	fs.String("fillable-template", cfg.FillableTemplate, "File name of the derived fillable template")
	fs.String("store", cfg.StoreKind, "Case store: memory, postgres or http")
	fs.String("database-dsn", cfg.DatabaseDSN, "PostgreSQL DSN (postgres store)")
	fs.String("case-api-url", cfg.CaseAPIURL, "Base URL of the case CRUD API (http store)")
	fs.String("seed-dir", cfg.SeedDir, "Directory of JSON case payloads loaded into the memory store")
	fs.Int("fetch-concurrency", cfg.FetchConcurrency, "Concurrent case fetches for batch documents")
	fs.String("converter-path", cfg.ConverterPath, "Path to the office converter executable used for DOCX to PDF")
	fs.Duration("convert-timeout", cfg.ConvertTimeout, "Upper bound for one DOCX to PDF conversion")
	fs.Bool("no-sandbox", cfg.NoSandbox, "Disable the OS sandbox of the headless browser (constrained hosts)")
	fs.String("browser-bin", cfg.BrowserBin, "Chromium binary for the headless renderer (default: managed download)")
	fs.Duration("render-timeout", cfg.RenderTimeout, "Upper bound for one headless PDF render")
	fs.String("page-format", cfg.PageFormat, "Default page format for rendered reports: letter, a4 or legal")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", cfg.LogFormat, "Log format (json, console)")
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, program string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", program)
		fmt.Fprintf(os.Stderr, "\ncasedocs - renders case records as filled forms, PDF reports and Word documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                              # stdio mode, memory store\n", program)
		fmt.Fprintf(os.Stderr, "  %s --mode=server --store=postgres --database-dsn=... # SSE server\n", program)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  CASEDOCS_CONVERTER_PATH   Office converter executable\n")
		fmt.Fprintf(os.Stderr, "  CASEDOCS_NO_SANDBOX       Disable the headless browser sandbox\n")
		fmt.Fprintf(os.Stderr, "  CASEDOCS_DATABASE_DSN     PostgreSQL DSN\n")
		fmt.Fprintf(os.Stderr, "  CASEDOCS_<FLAG>           Any flag above, upper-cased with '-' as '_'\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TemplateDir = v.GetString("template-dir")
	cfg.BaseTemplate = v.GetString("base-template")
	cfg.FillableTemplate = v.GetString("fillable-template")
	cfg.StoreKind = v.GetString("store")
	cfg.DatabaseDSN = v.GetString("database-dsn")
	cfg.CaseAPIURL = v.GetString("case-api-url")
	cfg.SeedDir = v.GetString("seed-dir")
	cfg.FetchConcurrency = v.GetInt("fetch-concurrency")
	cfg.ConverterPath = v.GetString("converter-path")
	cfg.ConvertTimeout = v.GetDuration("convert-timeout")
	cfg.NoSandbox = v.GetBool("no-sandbox")
	cfg.BrowserBin = v.GetString("browser-bin")
	cfg.RenderTimeout = v.GetDuration("render-timeout")
	cfg.PageFormat = v.GetString("page-format")
	cfg.LogLevel = v.GetString("log-level")
	cfg.LogFormat = v.GetString("log-format")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDir == "" {
		return errors.New("template directory cannot be empty")
	}
	if c.BaseTemplate == "" || c.FillableTemplate == "" {
		return errors.New("template file names cannot be empty")
	}
	if c.BaseTemplate == c.FillableTemplate {
		return errors.New("fillable template must differ from the base template")
	}

	// The template directory is created on demand; the fillable template is
	// written next to the base one.
	if _, err := os.Stat(c.TemplateDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.TemplateDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create template directory %s: %w", c.TemplateDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplateDir, err)
	}

	switch c.StoreKind {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("postgres store requires database-dsn")
		}
	case StoreHTTP:
		if c.CaseAPIURL == "" {
			return errors.New("http store requires case-api-url")
		}
	default:
		return fmt.Errorf("invalid store: %s (must be one of: memory, postgres, http)", c.StoreKind)
	}

	if c.FetchConcurrency < 1 {
		return errors.New("fetch concurrency must be positive")
	}
	if c.RenderTimeout <= 0 || c.ConvertTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}

	switch c.PageFormat {
	case "letter", "a4", "legal":
	default:
		return fmt.Errorf("invalid page format: %s (must be one of: letter, a4, legal)", c.PageFormat)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.LogFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseTemplatePath is the absolute path of the blank intake template
func (c *Config) BaseTemplatePath() string {
	return filepath.Join(c.TemplateDir, c.BaseTemplate)
}

// FillableTemplatePath is the absolute path of the derived fillable template
func (c *Config) FillableTemplatePath() string {
	return filepath.Join(c.TemplateDir, c.FillableTemplate)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The DSN is
// left out because it may carry credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplateDir: %s, Store: %s, Converter: %s, NoSandbox: %t, LogLevel: %s}",
		c.Mode, c.Host, c.Port, c.TemplateDir, c.StoreKind, c.ConverterPath, c.NoSandbox, c.LogLevel)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
