package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brianly1003/lrd/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage lrd configuration.

Without subcommands, shows the current effective configuration.

Examples:
  lrd config              # Show current config
  lrd config init         # Create config file with defaults
  lrd config path         # Show config file location
  lrd config get <key>    # Get a config value
  lrd config set <key> <value>  # Set a config value`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printConfig(cfg)
		return nil
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.lrd/lrd.yaml.
Use --local to create ./lrd.yaml in the current directory.

Examples:
  lrd config init          # Create ~/.lrd/lrd.yaml
  lrd config init --local  # Create ./lrd.yaml
  lrd config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Long: `Show where lrd looks for its config file and which candidates exist.

Examples:
  lrd config path`,
	RunE: runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  lrd config get server.port
  lrd config get watcher.exclude_patterns
  lrd config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key.

Creates the config file if it doesn't exist.
Keys use dot notation to access nested values. Exclusion patterns are a
list and must be edited in the file itself.

Examples:
  lrd config set server.port 9000
  lrd config set watcher.pattern_syntax glob
  lrd config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.lrd/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.ConfigFile
	if !configInitLocal {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, config.ConfigFile)
	}

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
	}

	if err := writeDefaultConfig(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit this file to customize lrd behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		fmt.Printf("Config file (from --config): %s\n", cfgFile)
		return nil
	}

	fmt.Println("Config search paths (in order):")
	for i, dir := range config.SearchPaths() {
		loc := filepath.Join(dir, config.ConfigFile)
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	fmt.Printf("\nConfig directory: %s\n", configDir)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath := cfgFile
	if configPath == "" {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, config.ConfigFile)
	}

	var data map[string]interface{}
	if content, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Root:            %s\n", cfg.Watcher.Root)
	fmt.Printf("Host:            %s\n", cfg.Server.Host)
	fmt.Printf("Port:            %d\n", cfg.Server.Port)
	if cfg.Server.ExternalURL != "" {
		fmt.Printf("External URL:    %s\n", cfg.Server.ExternalURL)
	}
	fmt.Printf("Pattern Syntax:  %s\n", cfg.Watcher.PatternSyntax)
	fmt.Printf("Exclusions:      %d\n", len(cfg.Watcher.ExcludePatterns))
	for _, p := range cfg.Watcher.ExcludePatterns {
		fmt.Printf("  - %s\n", p)
	}
	fmt.Printf("Log Level:       %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:      %s\n", cfg.Logging.Format)
	if cfg.Logging.File != "" {
		fmt.Printf("Log File:        %s\n", cfg.Logging.File)
	}
}

func getConfigValue(cfg *config.Config, key string) (interface{}, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return nil, fmt.Errorf("invalid key: %s", key)
	}

	switch section {
	case "server":
		switch field {
		case "port":
			return cfg.Server.Port, nil
		case "host":
			return cfg.Server.Host, nil
		case "external_url":
			return cfg.Server.ExternalURL, nil
		}
	case "watcher":
		switch field {
		case "root":
			return cfg.Watcher.Root, nil
		case "pattern_syntax":
			return cfg.Watcher.PatternSyntax, nil
		case "exclude_patterns":
			return strings.Join(cfg.Watcher.ExcludePatterns, "\n"), nil
		}
	case "logging":
		switch field {
		case "level":
			return cfg.Logging.Level, nil
		case "format":
			return cfg.Logging.Format, nil
		case "file":
			return cfg.Logging.File, nil
		case "max_size_mb":
			return cfg.Logging.MaxSizeMB, nil
		case "max_backups":
			return cfg.Logging.MaxBackups, nil
		}
	}

	return nil, fmt.Errorf("unknown config key: %s", key)
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	if strings.HasSuffix(key, "exclude_patterns") {
		return fmt.Errorf("%s is a list; edit the config file instead", key)
	}

	parts := strings.Split(key, ".")

	current := data
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := current[parts[i]]; !ok {
			current[parts[i]] = make(map[string]interface{})
		}
		nested, ok := current[parts[i]].(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot set nested value: %s is not a map", parts[i])
		}
		current = nested
	}

	current[parts[len(parts)-1]] = parseValue(key, value)
	return nil
}

func parseValue(key string, value string) interface{} {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	for _, k := range []string{"port", "max_size_mb", "max_backups"} {
		if strings.HasSuffix(key, k) {
			if i, err := strconv.Atoi(value); err == nil {
				return i
			}
		}
	}

	return value
}

func writeDefaultConfig(path string) error {
	content := `# lrd configuration
# Copy this file to ~/.lrd/lrd.yaml and modify as needed.
# Every key can also be set from the environment, e.g. LRD_SERVER_PORT=8080.

# HTTP and LiveReload server
server:
  # Bind address (use 0.0.0.0 to allow other devices on the network)
  host: "127.0.0.1"

  # Port for the site, the websocket, and livereload.js (0 picks a free port)
  port: 35729

  # Public URL for tunnels; used in the QR code instead of host:port
  # external_url: "https://your-tunnel.devtunnels.ms"

# Document root watcher
watcher:
  # Directory to serve and watch (default: current directory)
  # root: "./public"

  # Syntax of exclude_patterns: regexp or glob
  pattern_syntax: "regexp"

  # Paths matching any of these patterns never trigger a reload. A pattern
  # must match the whole root-relative path ("/" separated). The first match
  # wins. Remove this key to use the built-in defaults; an empty list
  # excludes nothing. Changes here apply without a restart.
  exclude_patterns:
    - '(.*/)?\.git(/.*)?'
    - '(.*/)?node_modules(/.*)?'
    - '.*\.sw[a-p]'
    - '.*~'

# Logging settings
logging:
  # Log level: trace, debug, info, warn, error
  level: "info"

  # Log format: console (human-readable) or json
  format: "console"

  # Also write JSON logs to this file, rotated by size
  # file: "lrd.log"
  max_size_mb: 10
  max_backups: 3
`

	return os.WriteFile(path, []byte(content), 0644)
}
