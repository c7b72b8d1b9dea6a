package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testConfig returns a valid configuration rooted in a temp directory so
// Validate can provision directories without touching the working tree.
func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.SourceDocument = filepath.Join(dir, "data", "source.pdf")
	cfg.OutputDir = filepath.Join(dir, "data", "signed")
	cfg.PublicDir = filepath.Join(dir, "public", "signed")
	cfg.DatabasePath = filepath.Join(dir, "data", "audit.db")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("expected host %s, got %s", DefaultHost, cfg.Host)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected log level %s, got %s", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Environment != DefaultEnvironment {
		t.Errorf("expected environment %s, got %s", DefaultEnvironment, cfg.Environment)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("expected max file size %d, got %d", DefaultMaxFileSize, cfg.MaxFileSize)
	}
	if !strings.HasSuffix(cfg.SourceDocument, filepath.Join("data", "source.pdf")) {
		t.Errorf("unexpected source document default: %s", cfg.SourceDocument)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port too low",
			modify:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port too high",
			modify:  func(c *Config) { c.Port = 65536 },
			wantErr: true,
		},
		{
			name:    "empty source document",
			modify:  func(c *Config) { c.SourceDocument = "" },
			wantErr: true,
		},
		{
			name:    "empty output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: true,
		},
		{
			name:    "empty public dir",
			modify:  func(c *Config) { c.PublicDir = "" },
			wantErr: true,
		},
		{
			name:    "zero max file size",
			modify:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid environment",
			modify:  func(c *Config) { c.Environment = "staging" },
			wantErr: true,
		},
		{
			name:    "production environment",
			modify:  func(c *Config) { c.Environment = "production" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigValidateProvisionsDirectories(t *testing.T) {
	cfg := testConfig(t)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	for _, dir := range []string{cfg.OutputDir, cfg.PublicDir, filepath.Dir(cfg.DatabasePath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s was not provisioned: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 8080}
	if got := cfg.Address(); got != "127.0.0.1:8080" {
		t.Errorf("expected address 127.0.0.1:8080, got %s", got)
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Error("expected IsDebug to be true for debug level")
	}

	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Error("expected IsDebug to be false for info level")
	}
}

func TestConfigIsProduction(t *testing.T) {
	cfg := &Config{Environment: "production"}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}

	cfg.Environment = "development"
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false")
	}
}

func TestConfigString(t *testing.T) {
	cfg := testConfig(t)
	s := cfg.String()

	for _, want := range []string{cfg.Host, cfg.SourceDocument, cfg.LogLevel} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q: %s", want, s)
		}
	}
}
