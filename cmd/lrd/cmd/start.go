package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianly1003/lrd/internal/app"
	"github.com/brianly1003/lrd/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	rootPath    string
	host        string
	port        int
	excludes    []string
	useGlob     bool
	showQR      bool
	externalURL string
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Serve a directory and reload browsers on change",
	Long: `Serve a directory over HTTP and push a reload to every connected
browser whenever a file beneath it is modified or created.

Exclusion patterns match the whole root-relative path, with "/" as the
separator. They are checked in order and the first match wins. --exclude
appends to the configured patterns (or to the defaults when none are
configured).

Example:
  lrd start                              # Serve the current directory
  lrd start --root ./public --port 8080
  lrd start --port 0                     # Any free port
  lrd start --exclude '.*\.map'          # Regular expression
  lrd start --glob --exclude 'dist/**'   # Glob syntax
  lrd start --host 0.0.0.0 --qr          # Open the site from a phone

Edits to the exclusion patterns in the config file apply without a restart.`,
	RunE: runStart,
}

func init() {
	bindStartFlags(startCmd)
}

func bindStartFlags(c *cobra.Command) {
	c.Flags().StringVar(&rootPath, "root", "", "document root to serve and watch (default: current directory)")
	c.Flags().StringVar(&host, "host", "", "bind address (default: 127.0.0.1)")
	c.Flags().IntVar(&port, "port", config.DefaultPort, "server port, 0 picks a free port")
	c.Flags().StringArrayVar(&excludes, "exclude", nil, "exclusion pattern, may be repeated")
	c.Flags().BoolVar(&useGlob, "glob", false, "interpret exclusion patterns as globs instead of regular expressions")
	c.Flags().BoolVar(&showQR, "qr", false, "print a QR code of the site URL")
	c.Flags().StringVar(&externalURL, "external-url", "", "public URL for tunnels, used in the QR code (e.g., https://tunnel.devtunnels.ms)")
}

func runStart(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyStartFlags(cmd, cfg)

	// Re-validate after overrides
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logFile := setupLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	log.Info().
		Str("version", version).
		Str("root", cfg.Watcher.Root).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("pattern_syntax", cfg.Watcher.PatternSyntax).
		Msg("starting lrd")

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	application.SetConfigLoader(loader)
	if showQR {
		application.EnableQR()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

// applyStartFlags overrides cfg with the flags the user set explicitly.
func applyStartFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if rootPath != "" {
		cfg.Watcher.Root = rootPath
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if externalURL != "" {
		cfg.Server.ExternalURL = externalURL
	}
	if useGlob {
		cfg.Watcher.SetSyntax("glob")
	}
	if len(excludes) > 0 {
		cfg.Watcher.AddExcludePatterns(excludes...)
	}
}

// setupLogging configures the global logger. When a log file is configured
// it returns the rotating writer so the caller can close it.
func setupLogging(cfg *config.Config) io.Closer {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Logging.Format == "console" || verbose {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	var rotator *lumberjack.Logger
	if cfg.Logging.File != "" {
		// The file always gets JSON regardless of the console format.
		rotator = &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if rotator == nil {
		return nil
	}
	return rotator
}
