// Package config handles configuration management for lrd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	// ConfigName is the config file name without extension.
	ConfigName = "lrd"

	// ConfigFile is the file name written by "lrd config init".
	ConfigFile = ConfigName + ".yaml"

	// EnvPrefix prefixes environment overrides, e.g. LRD_SERVER_PORT.
	EnvPrefix = "LRD"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the LiveReload server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"` // 0 picks a free port
	// ExternalURL replaces the local address in the --qr code, e.g. a LAN
	// or tunnel URL reachable from a phone.
	ExternalURL string `mapstructure:"external_url" yaml:"external_url,omitempty"`
}

// WatcherConfig holds file watcher configuration.
type WatcherConfig struct {
	Root            string   `mapstructure:"root" yaml:"root"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
	PatternSyntax   string   `mapstructure:"pattern_syntax" yaml:"pattern_syntax"`

	// defaultPatterns is true while ExcludePatterns holds the built-in list.
	defaultPatterns bool
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// SetSyntax changes the pattern syntax. Built-in exclusion patterns are
// swapped for their equivalent in the new syntax; user patterns are kept.
func (c *WatcherConfig) SetSyntax(syntax string) {
	c.PatternSyntax = strings.ToLower(strings.TrimSpace(syntax))
	if c.defaultPatterns {
		c.ExcludePatterns = DefaultExcludePatterns(c.PatternSyntax)
	}
}

// AddExcludePatterns appends patterns to the configured list.
func (c *WatcherConfig) AddExcludePatterns(patterns ...string) {
	if len(patterns) == 0 {
		return
	}
	c.ExcludePatterns = append(append([]string(nil), c.ExcludePatterns...), patterns...)
	c.defaultPatterns = false
}

// Loader reads configuration from a file, the environment, and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader. An empty configPath searches the default
// locations.
func NewLoader(configPath string) *Loader {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, dir := range SearchPaths() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default, so AutomaticEnv alone would not see it.
	_ = v.BindEnv("watcher.exclude_patterns")

	setDefaults(v)

	return &Loader{v: v}
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// Load reads, post-processes, and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch calls onChange with the new configuration whenever the config file
// is written. Invalid edits are logged and ignored. Without a config file
// Watch does nothing.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("configuration reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.external_url", "")

	v.SetDefault("watcher.root", "")
	v.SetDefault("watcher.pattern_syntax", "regexp")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
}

// postProcess fills derived values and normalizes case.
func postProcess(cfg *Config) error {
	if cfg.Watcher.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		cfg.Watcher.Root = cwd
	}

	absPath, err := filepath.Abs(cfg.Watcher.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve watcher root: %w", err)
	}
	cfg.Watcher.Root = absPath

	cfg.Watcher.PatternSyntax = strings.ToLower(strings.TrimSpace(cfg.Watcher.PatternSyntax))
	if cfg.Watcher.ExcludePatterns == nil {
		cfg.Watcher.ExcludePatterns = DefaultExcludePatterns(cfg.Watcher.PatternSyntax)
		cfg.Watcher.defaultPatterns = true
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	return nil
}

// SearchPaths returns the directories searched for lrd.yaml, in order.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, err := GetConfigDir(); err == nil {
		paths = append(paths, dir)
	}
	return append(paths, "/etc/lrd")
}

// GetConfigDir returns the user config directory for lrd.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".lrd"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
