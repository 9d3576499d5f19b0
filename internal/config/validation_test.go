package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianly1003/lrd/internal/domain"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Server: ServerConfig{Host: DefaultHost, Port: DefaultPort},
		Watcher: WatcherConfig{
			Root:            t.TempDir(),
			PatternSyntax:   "regexp",
			ExcludePatterns: DefaultExcludePatterns("regexp"),
		},
		Logging: LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"any free port", func(c *Config) { c.Server.Port = 0 }, ""},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"empty host", func(c *Config) { c.Server.Host = "" }, "server.host"},
		{"external url", func(c *Config) { c.Server.ExternalURL = "https://abc.devtunnels.ms" }, ""},
		{"external url scheme", func(c *Config) { c.Server.ExternalURL = "ftp://host" }, "server.external_url"},
		{"external url host", func(c *Config) { c.Server.ExternalURL = "http://" }, "server.external_url"},
		{"missing root", func(c *Config) { c.Watcher.Root = filepath.Join(c.Watcher.Root, "missing") }, "does not exist"},
		{"unknown syntax", func(c *Config) { c.Watcher.PatternSyntax = "wildcard" }, "watcher.pattern_syntax"},
		{"bad pattern", func(c *Config) { c.Watcher.ExcludePatterns = []string{"*.tmp"} }, "watcher.exclude_patterns"},
		{"glob pattern", func(c *Config) {
			c.Watcher.PatternSyntax = "glob"
			c.Watcher.ExcludePatterns = []string{"*.tmp"}
		}, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log file without size", func(c *Config) {
			c.Logging.File = "lrd.log"
			c.Logging.MaxSizeMB = 0
		}, "logging.max_size_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RootIsFile(t *testing.T) {
	cfg := validConfig(t)
	cfg.Watcher.Root = writeConfig(t, cfg.Watcher.Root, "x: 1")

	var verr *domain.ValidationError
	if err := Validate(cfg); !errors.As(err, &verr) || verr.Field != "watcher.root" {
		t.Errorf("Validate() error = %v, want watcher.root validation error", err)
	}
}

func TestValidate_PatternErrorIsTyped(t *testing.T) {
	cfg := validConfig(t)
	cfg.Watcher.ExcludePatterns = []string{`ok`, `(abc`}

	err := Validate(cfg)
	if !errors.Is(err, domain.ErrInvalidPattern) {
		t.Errorf("Validate() error = %v, want ErrInvalidPattern", err)
	}
}
