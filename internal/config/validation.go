package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/watcher"
	"github.com/rs/zerolog"
)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	if err := validateWatcher(&cfg.Watcher); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return domain.NewValidationError("server.port", "must be between 0 and 65535")
	}
	if cfg.Host == "" {
		return domain.NewValidationError("server.host", "cannot be empty")
	}

	if cfg.ExternalURL != "" {
		if err := validateExternalURL(cfg.ExternalURL, "server.external_url"); err != nil {
			return err
		}
	}

	return nil
}

// validateExternalURL requires an absolute http or https URL.
func validateExternalURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.NewValidationError(fieldName, fmt.Sprintf("not a valid URL: %v", err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.NewValidationError(fieldName, "scheme must be http or https")
	}
	if parsed.Host == "" {
		return domain.NewValidationError(fieldName, "must include a host")
	}
	return nil
}

func validateWatcher(cfg *WatcherConfig) error {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewValidationError("watcher.root", "does not exist: "+cfg.Root)
		}
		return fmt.Errorf("unable to access watcher.root (%s): %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return domain.NewValidationError("watcher.root", "must be a directory: "+cfg.Root)
	}

	syntax, err := watcher.ParseSyntax(cfg.PatternSyntax)
	if err != nil {
		return domain.NewValidationError("watcher.pattern_syntax", err.Error())
	}

	if _, err := watcher.NewFilter(syntax, cfg.ExcludePatterns); err != nil {
		return fmt.Errorf("watcher.exclude_patterns: %w", err)
	}

	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil || cfg.Level == "" {
		return domain.NewValidationError("logging.level", fmt.Sprintf("unknown level %q", cfg.Level))
	}

	switch cfg.Format {
	case "console", "json":
	default:
		return domain.NewValidationError("logging.format", "must be console or json")
	}

	if cfg.File != "" {
		if cfg.MaxSizeMB < 1 {
			return domain.NewValidationError("logging.max_size_mb", "must be at least 1")
		}
		if cfg.MaxBackups < 0 {
			return domain.NewValidationError("logging.max_backups", "cannot be negative")
		}
	}

	return nil
}

// Filter compiles the configured exclusion patterns.
func (c *WatcherConfig) Filter() (*watcher.Filter, error) {
	syntax, err := watcher.ParseSyntax(c.PatternSyntax)
	if err != nil {
		return nil, err
	}
	return watcher.NewFilter(syntax, c.ExcludePatterns)
}
