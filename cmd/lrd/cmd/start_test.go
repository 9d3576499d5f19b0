package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brianly1003/lrd/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStartFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	c := &cobra.Command{Use: "start"}
	bindStartFlags(c)
	if err := c.Flags().Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return c
}

func baseConfig(root string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: config.DefaultHost, Port: config.DefaultPort},
		Watcher: config.WatcherConfig{
			Root:            root,
			PatternSyntax:   "regexp",
			ExcludePatterns: []string{`.*\.tmp`},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3},
	}
}

func TestApplyStartFlags_NoFlags(t *testing.T) {
	c := newStartFlags(t)
	cfg := baseConfig(t.TempDir())
	cfg.Server.Port = 9000

	applyStartFlags(c, cfg)

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, unset flag must not override", cfg.Server.Port)
	}
	if len(cfg.Watcher.ExcludePatterns) != 1 {
		t.Errorf("ExcludePatterns = %v", cfg.Watcher.ExcludePatterns)
	}
}

func TestApplyStartFlags_Overrides(t *testing.T) {
	root := t.TempDir()
	c := newStartFlags(t,
		"--root", root,
		"--host", "0.0.0.0",
		"--port", "0",
		"--exclude", `.*\.map`,
		"--exclude", `dist/.*`,
		"--external-url", "https://abc.devtunnels.ms",
	)
	cfg := baseConfig(t.TempDir())

	applyStartFlags(c, cfg)

	if cfg.Watcher.Root != root || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Root/Host = %q/%q", cfg.Watcher.Root, cfg.Server.Host)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Server.Port)
	}
	if cfg.Server.ExternalURL != "https://abc.devtunnels.ms" {
		t.Errorf("ExternalURL = %q", cfg.Server.ExternalURL)
	}
	want := []string{`.*\.tmp`, `.*\.map`, `dist/.*`}
	if len(cfg.Watcher.ExcludePatterns) != len(want) {
		t.Fatalf("ExcludePatterns = %v, want %v", cfg.Watcher.ExcludePatterns, want)
	}
	for i := range want {
		if cfg.Watcher.ExcludePatterns[i] != want[i] {
			t.Errorf("pattern %d = %q, want %q", i, cfg.Watcher.ExcludePatterns[i], want[i])
		}
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyStartFlags_Glob(t *testing.T) {
	c := newStartFlags(t, "--glob", "--exclude", "*.map")
	cfg := baseConfig(t.TempDir())
	cfg.Watcher.ExcludePatterns = nil

	applyStartFlags(c, cfg)

	if cfg.Watcher.PatternSyntax != "glob" {
		t.Errorf("PatternSyntax = %q, want glob", cfg.Watcher.PatternSyntax)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	cfg := baseConfig(t.TempDir())
	cfg.Logging.Level = "warn"
	if closer := setupLogging(cfg); closer != nil {
		t.Error("no log file configured, want nil closer")
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", zerolog.GlobalLevel())
	}

	logPath := filepath.Join(t.TempDir(), "lrd.log")
	cfg.Logging.File = logPath
	cfg.Logging.Format = "json"
	closer := setupLogging(cfg)
	if closer == nil {
		t.Fatal("log file configured, want a closer")
	}
	log.Warn().Msg("rotated")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}
