package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultEnvironment = "development"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF signing server
type Config struct {
	// Server configuration
	Host string
	Port int

	// Document configuration
	SourceDocument string // Fixed base document all signing starts from
	OutputDir      string // Signed artifacts
	PublicDir      string // Publicly served duplicates
	DatabasePath   string // Audit ledger
	MaxFileSize    int64  // Maximum source document size in bytes

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	Environment string // "development" or "production"
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		SourceDocument: filepath.Join(currentDir, "data", "source.pdf"),
		OutputDir:      filepath.Join(currentDir, "data", "signed"),
		PublicDir:      filepath.Join(currentDir, "public", "signed"),
		DatabasePath:   filepath.Join(currentDir, "data", "audit.db"),
		MaxFileSize:    DefaultMaxFileSize,
		Version:        "1.0.0",
		ServerName:     "pdf-sign-server",
		LogLevel:       DefaultLogLevel,
		Environment:    DefaultEnvironment,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.SourceDocument, &cfg.OutputDir, &cfg.PublicDir, &cfg.DatabasePath} {
		if *p != "" {
			if expandedPath, err := filepath.Abs(*p); err == nil {
				*p = expandedPath
			}
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("PDF_SIGN")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("source", cfg.SourceDocument)
	viper.SetDefault("outputdir", cfg.OutputDir)
	viper.SetDefault("publicdir", cfg.PublicDir)
	viper.SetDefault("db", cfg.DatabasePath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("env", cfg.Environment)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("source", cfg.SourceDocument, "Path to the base PDF document")
	pflag.String("outputdir", cfg.OutputDir, "Directory for signed documents")
	pflag.String("publicdir", cfg.PublicDir, "Directory for publicly served signed documents")
	pflag.String("db", cfg.DatabasePath, "Path to the audit ledger database")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("env", cfg.Environment, "Environment (development, production)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum source document size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"host", "port", "source", "outputdir", "publicdir",
		"db", "loglevel", "env", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Sign Server - field injection and integrity audit for PDF documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --source=/data/contract.pdf                # serve on 127.0.0.1:8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081                 # serve on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_SOURCE       Base PDF document path\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_OUTPUTDIR    Signed documents directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_PUBLICDIR    Public signed documents directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_DB           Audit ledger database path\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_ENV          Environment\n")
		fmt.Fprintf(os.Stderr, "  PDF_SIGN_MAXFILESIZE  Maximum source document size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.SourceDocument = viper.GetString("source")
	cfg.OutputDir = viper.GetString("outputdir")
	cfg.PublicDir = viper.GetString("publicdir")
	cfg.DatabasePath = viper.GetString("db")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.Environment = viper.GetString("env")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate port range
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.SourceDocument == "" {
		return errors.New("source document path cannot be empty")
	}

	// Provision the data directories
	for _, dir := range []string{c.OutputDir, c.PublicDir, filepath.Dir(c.DatabasePath)} {
		if dir == "" {
			return errors.New("data directories cannot be empty")
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", dir, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Environment != "development" && c.Environment != "production" {
		return errors.New("environment must be either 'development' or 'production'")
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsProduction returns true if the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, SourceDocument: %s, OutputDir: %s, DatabasePath: %s, LogLevel: %s}",
		c.Host, c.Port, c.SourceDocument, c.OutputDir, c.DatabasePath, c.LogLevel)
}
