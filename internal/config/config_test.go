package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("default Host = %s, want %s", cfg.Server.Host, DefaultHost)
	}
	if cfg.Watcher.PatternSyntax != "regexp" {
		t.Errorf("default PatternSyntax = %q, want regexp", cfg.Watcher.PatternSyntax)
	}
	if len(cfg.Watcher.ExcludePatterns) != len(defaultRegexpExcludes) {
		t.Errorf("default ExcludePatterns = %v", cfg.Watcher.ExcludePatterns)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.MaxSizeMB != 10 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("default rotation = %d MB x %d", cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
	}

	cwd, _ := os.Getwd()
	if cfg.Watcher.Root != cwd {
		t.Errorf("default Root = %q, want %q", cfg.Watcher.Root, cwd)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()

	path := writeConfig(t, tempDir, `
server:
  port: 9000
  host: "0.0.0.0"
  external_url: "http://192.168.1.20:9000"

watcher:
  root: "`+tempDir+`"
  pattern_syntax: Glob
  exclude_patterns:
    - "*.tmp"
    - "dist/**"

logging:
  level: DEBUG
  format: json
  file: "`+filepath.Join(tempDir, "lrd.log")+`"
  max_size_mb: 5
  max_backups: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.ExternalURL != "http://192.168.1.20:9000" {
		t.Errorf("ExternalURL = %q", cfg.Server.ExternalURL)
	}
	if cfg.Watcher.Root != tempDir {
		t.Errorf("Root = %q, want %q", cfg.Watcher.Root, tempDir)
	}
	if cfg.Watcher.PatternSyntax != "glob" {
		t.Errorf("PatternSyntax = %q, want glob", cfg.Watcher.PatternSyntax)
	}
	if len(cfg.Watcher.ExcludePatterns) != 2 || cfg.Watcher.ExcludePatterns[0] != "*.tmp" {
		t.Errorf("ExcludePatterns = %v", cfg.Watcher.ExcludePatterns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.MaxSizeMB != 5 || cfg.Logging.MaxBackups != 1 {
		t.Errorf("rotation = %d MB x %d", cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
	}
}

func TestLoad_EmptyPatternListDisablesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := writeConfig(t, tempDir, `
watcher:
  root: "`+tempDir+`"
  exclude_patterns: []
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Watcher.ExcludePatterns) != 0 {
		t.Errorf("ExcludePatterns = %v, want none", cfg.Watcher.ExcludePatterns)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("LRD_SERVER_PORT", "9123")
	t.Setenv("LRD_WATCHER_ROOT", tempDir)
	t.Setenv("LRD_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9123 {
		t.Errorf("Server.Port = %d, want 9123", cfg.Server.Port)
	}
	if cfg.Watcher.Root != tempDir {
		t.Errorf("Watcher.Root = %q, want %q", cfg.Watcher.Root, tempDir)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tempDir := t.TempDir()
	path := writeConfig(t, tempDir, "server: [unclosed")

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	tempDir := t.TempDir()
	path := writeConfig(t, tempDir, `
watcher:
  root: "`+tempDir+`"
  exclude_patterns: ["(unclosed"]
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject a pattern that does not compile")
	}
}

func TestWatcherConfig_SetSyntax(t *testing.T) {
	cfg := WatcherConfig{
		ExcludePatterns: DefaultExcludePatterns("regexp"),
		PatternSyntax:   "regexp",
		defaultPatterns: true,
	}

	cfg.SetSyntax("glob")
	if cfg.PatternSyntax != "glob" {
		t.Errorf("PatternSyntax = %q", cfg.PatternSyntax)
	}
	if cfg.ExcludePatterns[0] != defaultGlobExcludes[0] {
		t.Errorf("defaults not swapped: %v", cfg.ExcludePatterns)
	}

	cfg.AddExcludePatterns("*.map")
	cfg.SetSyntax("regexp")
	if cfg.ExcludePatterns[0] != defaultGlobExcludes[0] {
		t.Error("user-modified patterns must not be swapped")
	}
	if last := cfg.ExcludePatterns[len(cfg.ExcludePatterns)-1]; last != "*.map" {
		t.Errorf("last pattern = %q, want *.map", last)
	}
}

func TestDefaultExcludePatterns_Compile(t *testing.T) {
	for _, syntax := range []string{"regexp", "glob"} {
		t.Run(syntax, func(t *testing.T) {
			cfg := WatcherConfig{
				PatternSyntax:   syntax,
				ExcludePatterns: DefaultExcludePatterns(syntax),
			}
			f, err := cfg.Filter()
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}

			excluded := []string{".git/HEAD", "web/node_modules/x/index.js", "a/b.swp", "notes.txt~", ".DS_Store", "src/.idea/workspace.xml"}
			for _, p := range excluded {
				if f.ShouldNotify(p) {
					t.Errorf("%s: %q should be excluded", syntax, p)
				}
			}
			kept := []string{"index.html", "css/site.css", "src/git/notes.md", "gitignore.txt"}
			for _, p := range kept {
				if !f.ShouldNotify(p) {
					t.Errorf("%s: %q should be reported", syntax, p)
				}
			}
		})
	}
}

func TestLoader_Watch(t *testing.T) {
	tempDir := t.TempDir()
	path := writeConfig(t, tempDir, `
watcher:
  root: "`+tempDir+`"
  exclude_patterns: [".*\\.tmp"]
`)

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loader.ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q, want %q", loader.ConfigFileUsed(), path)
	}

	changed := make(chan *Config, 4)
	loader.Watch(func(cfg *Config) { changed <- cfg })

	// Give viper's watcher a moment to register before editing.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, tempDir, `
watcher:
  root: "`+tempDir+`"
  exclude_patterns: [".*\\.tmp", ".*\\.map"]
`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if len(cfg.Watcher.ExcludePatterns) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
