// Package app wires the watcher, event hub, and LiveReload server together.
package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/brianly1003/lrd/internal/config"
	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/hub"
	"github.com/brianly1003/lrd/internal/pairing"
	"github.com/brianly1003/lrd/internal/server/livereload"
	"github.com/brianly1003/lrd/internal/sync"
	"github.com/brianly1003/lrd/internal/watcher"
	"github.com/brianly1003/lrd/internal/watchservice"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// shutdownTimeout bounds the HTTP server shutdown.
const shutdownTimeout = 5 * time.Second

// App is the main application struct that orchestrates all components.
type App struct {
	cfg     *config.Config
	version string

	// Core components
	hub      *hub.Hub
	watcher  *watcher.Watcher
	notifier *livereload.Notifier
	server   *livereload.Server

	loader *config.Loader
	showQR bool
	out    io.Writer

	sessionID string
	startTime time.Time
	started   chan struct{}

	mu      sync.Mutex
	running bool
}

// New builds every component and registers the document root. Nothing runs
// until Start.
func New(cfg *config.Config, version string) (*App, error) {
	filter, err := cfg.Watcher.Filter()
	if err != nil {
		return nil, fmt.Errorf("invalid exclusion patterns: %w", err)
	}

	svc, err := watchservice.New()
	if err != nil {
		return nil, err
	}

	w, err := watcher.New(cfg.Watcher.Root, svc)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	w.SetPatterns(filter)

	eventHub := hub.New()
	notifier := livereload.NewNotifier(eventHub)
	w.SetListener(notifier)

	return &App{
		cfg:       cfg,
		version:   version,
		hub:       eventHub,
		watcher:   w,
		notifier:  notifier,
		server:    livereload.NewServer(cfg.Server.Host, cfg.Server.Port, w.Root(), eventHub),
		out:       os.Stdout,
		sessionID: uuid.New().String(),
		started:   make(chan struct{}),
	}, nil
}

// SetConfigLoader enables hot reload of exclusion patterns when the config
// file changes.
func (a *App) SetConfigLoader(l *config.Loader) {
	a.loader = l
}

// SetOutput redirects the connection banner.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// EnableQR prints a QR code of the page URL after startup.
func (a *App) EnableQR() {
	a.showQR = true
}

// Start starts every component and blocks until ctx is cancelled or the
// watcher stops on its own because the document root disappeared.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running || !a.startTime.IsZero() {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	a.running = true
	a.startTime = time.Now()
	a.mu.Unlock()

	if err := a.hub.Start(); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	a.hub.Subscribe(hub.NewLogSubscriber("internal-logger", func(event events.Event) {
		log.Trace().
			Str("command", string(event.Type())).
			Time("timestamp", event.Timestamp()).
			Msg("event broadcast")
	}))

	if err := a.server.Start(); err != nil {
		a.watcher.Stop()
		_ = a.hub.Stop()
		return err
	}

	a.watcher.Start()

	if a.loader != nil {
		a.loader.Watch(a.applyConfig)
	}

	log.Info().
		Str("session_id", a.sessionID).
		Str("root", a.watcher.Root()).
		Str("addr", a.server.Addr()).
		Msg("lrd ready")

	a.printConnectionInfo()
	close(a.started)

	var runErr error
	select {
	case <-ctx.Done():
	case <-a.watcher.Done():
		runErr = fmt.Errorf("document root %s is no longer accessible", a.watcher.Root())
		a.notifier.Alert("lrd stopped: " + runErr.Error())
	}

	if err := a.shutdown(); err != nil {
		return err
	}
	return runErr
}

// Started is closed once Start has brought every component up.
func (a *App) Started() <-chan struct{} {
	return a.started
}

// shutdown stops components in reverse start order.
func (a *App) shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false

	log.Info().Msg("shutting down...")

	a.watcher.Stop()
	a.watcher.Wait()

	// Give a final alert time to reach the clients.
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("error stopping livereload server")
	}

	if err := a.hub.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping event hub")
	}

	published, dropped := a.hub.Stats()
	log.Info().
		Uint64("reloads", published).
		Uint64("dropped", dropped).
		Dur("uptime", time.Since(a.startTime)).
		Msg("lrd stopped")

	return nil
}

// applyConfig swaps in new exclusion patterns. Other settings need a
// restart.
func (a *App) applyConfig(cfg *config.Config) {
	filter, err := cfg.Watcher.Filter()
	if err != nil {
		log.Warn().Err(err).Msg("keeping previous exclusion patterns")
		return
	}
	a.watcher.SetPatterns(filter)
	log.Info().Int("patterns", filter.Len()).Msg("exclusion patterns updated")
}

// Addr returns the server's bound address.
func (a *App) Addr() string {
	return a.server.Addr()
}

// Watcher returns the document root watcher.
func (a *App) Watcher() *watcher.Watcher {
	return a.watcher
}

// GetHub returns the event hub.
func (a *App) GetHub() *hub.Hub {
	return a.hub
}

// GetSessionID returns the ID generated for this run.
func (a *App) GetSessionID() string {
	return a.sessionID
}

// printConnectionInfo prints the URLs a page needs to take part in reloads.
func (a *App) printConnectionInfo() {
	addr := a.server.Addr()
	if host, port, err := net.SplitHostPort(addr); err == nil {
		if host == "" || host == "::" || host == "0.0.0.0" {
			host = "localhost"
		}
		addr = net.JoinHostPort(host, port)
	}
	httpURL := "http://" + addr
	script := fmt.Sprintf(`<script src="%s%s"></script>`, httpURL, livereload.PathScript)

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "╔════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(a.out, "║                       lrd ready                            ║")
	fmt.Fprintln(a.out, "╠════════════════════════════════════════════════════════════╣")
	fmt.Fprintf(a.out, "║  Root:    %-49s║\n", truncateString(a.watcher.Root(), 48))
	fmt.Fprintf(a.out, "║  Site:    %-49s║\n", truncateString(httpURL+"/", 48))
	fmt.Fprintf(a.out, "║  Patterns: %-48s║\n", strconv.Itoa(a.watcher.Patterns().Len())+" exclusions")
	fmt.Fprintln(a.out, "╠════════════════════════════════════════════════════════════╣")
	fmt.Fprintln(a.out, "║  Add to your pages:                                        ║")
	fmt.Fprintln(a.out, "╚════════════════════════════════════════════════════════════╝")
	fmt.Fprintf(a.out, "  %s\n", script)

	if a.showQR {
		if err := a.qrGenerator().Fprint(a.out); err != nil {
			log.Warn().Err(err).Msg("failed to print QR code")
		}
	}
	fmt.Fprintln(a.out)
}

// qrGenerator targets the bound port, which differs from the configured one
// when port 0 was requested.
func (a *App) qrGenerator() *pairing.QRGenerator {
	port := a.cfg.Server.Port
	if _, p, err := net.SplitHostPort(a.server.Addr()); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	g := pairing.NewQRGenerator(a.cfg.Server.Host, port)
	if a.cfg.Server.ExternalURL != "" {
		g.SetExternalURL(a.cfg.Server.ExternalURL)
	}
	return g
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return "..." + s[len(s)-maxLen+3:]
}
