// Package watcher implements the recursive document root watcher.
//
// A Watcher registers the root and every real subdirectory with a
// ports.WatchService, then consumes signalled keys on a single background
// goroutine. Modified files are reported to the ChangeListener as
// slash-separated paths relative to the root, unless an exclusion pattern
// matches. Newly created directories are registered as they appear.
//
// The listener runs on the loop goroutine. A listener that blocks delays every
// later event, so production listeners hand the path off and return.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/brianly1003/lrd/internal/pathutil"
	"github.com/brianly1003/lrd/internal/sync"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of a Watcher.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// listenerRef lets a nil listener be stored in an atomic.Pointer.
type listenerRef struct {
	l ports.ChangeListener
}

// Watcher watches a directory tree and reports modified files.
type Watcher struct {
	root     string
	svc      ports.WatchService
	registry *registry

	filter   atomic.Pointer[Filter]
	listener atomic.Pointer[listenerRef]

	state   atomic.Int32
	running atomic.Bool

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// New registers root and all of its subdirectories with svc. It fails with a
// *domain.RegistrationError when root is not a readable directory or any
// directory beneath it cannot be registered; svc is left open in that case.
func New(root string, svc ports.WatchService) (*Watcher, error) {
	resolved, err := pathutil.ResolveRoot(root)
	if err != nil {
		return nil, domain.NewRegistrationError(root, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     resolved,
		svc:      svc,
		registry: newRegistry(svc),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if err := w.registry.registerRecursive(resolved); err != nil {
		cancel()
		return nil, err
	}

	log.Debug().
		Str("root", resolved).
		Int("directories", w.registry.len()).
		Msg("document root registered")

	return w, nil
}

// Root returns the absolute watch root.
func (w *Watcher) Root() string {
	return w.root
}

// SetPatterns replaces the exclusion filter. A nil filter excludes nothing.
// Safe to call while the watcher runs; the change applies from the next
// filtered event.
func (w *Watcher) SetPatterns(f *Filter) {
	w.filter.Store(f)
}

// Patterns returns the current exclusion filter.
func (w *Watcher) Patterns() *Filter {
	return w.filter.Load()
}

// SetListener replaces the change listener. A nil listener discards changes.
func (w *Watcher) SetListener(l ports.ChangeListener) {
	w.listener.Store(&listenerRef{l: l})
}

// Start launches the watch loop. Only the first call has an effect; a
// stopped watcher cannot be restarted.
func (w *Watcher) Start() {
	if !w.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}
	w.running.Store(true)

	go w.run()

	log.Info().
		Str("root", w.root).
		Int("patterns", w.Patterns().Len()).
		Msg("file watcher started")
}

// Stop asks the loop to exit and closes the watch service, which unblocks a
// pending wait. It returns without waiting for the loop; use Wait for that.
func (w *Watcher) Stop() {
	w.running.Store(false)
	w.cancel()

	if w.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
		w.closeDone()
	}

	if err := w.svc.Close(); err != nil {
		log.Debug().Err(err).Msg("closing watch service")
	}
}

// Wait blocks until the loop has exited. It returns immediately for a
// watcher that was stopped before it started.
func (w *Watcher) Wait() {
	<-w.done
}

// Done returns a channel that's closed when the watcher is stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// State returns the lifecycle state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// IsRunning returns true while the loop consumes events.
func (w *Watcher) IsRunning() bool {
	return w.running.Load()
}

func (w *Watcher) closeDone() {
	w.doneOnce.Do(func() { close(w.done) })
}

// run is the watch loop.
func (w *Watcher) run() {
	defer func() {
		w.running.Store(false)
		w.state.Store(int32(StateStopped))
		_ = w.svc.Close()
		w.closeDone()
	}()

	for w.running.Load() {
		key, err := w.svc.Take(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrWatchServiceClosed) || errors.Is(err, context.Canceled) {
				log.Info().Str("root", w.root).Msg("file watcher stopped")
				return
			}
			log.Error().Err(err).Str("root", w.root).Msg("file watcher terminated")
			return
		}

		if !w.processKey(key) {
			log.Warn().
				Str("root", w.root).
				Msg("all watched directories are inaccessible, file watcher stopped")
			return
		}
	}
}

// processKey handles one batch and re-arms its key. It returns false once no
// directory is left to watch.
func (w *Watcher) processKey(key ports.WatchKey) bool {
	dir, ok := w.registry.resolve(key)
	if !ok {
		log.Warn().
			Err(domain.ErrUnrecognizedKey).
			Str("dir", key.Dir()).
			Msg("ignoring events")
		return true
	}

	for _, event := range key.PollEvents() {
		w.handleEvent(dir, event)
	}

	if !key.Reset() {
		log.Debug().Str("dir", dir).Msg("directory no longer watched")
		if w.registry.invalidate(key) {
			return false
		}
	}
	return true
}

// handleEvent processes a single event. A panic raised while handling it
// (for example by the listener) is logged and the loop carries on.
func (w *Watcher) handleEvent(dir string, event ports.WatchEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("dir", dir).
				Str("name", event.Name).
				Msg("recovered while handling watch event")
		}
	}()

	switch event.Kind {
	case ports.EventOverflow:
		// No rescan: changes lost to an overflow are not reported.
		log.Debug().Str("dir", dir).Msg("watch events overflowed")

	case ports.EventModify:
		child := filepath.Join(dir, event.Name)
		rel, err := pathutil.RelSlash(w.root, child)
		if err != nil {
			log.Warn().Err(err).Str("path", child).Msg("cannot relativize changed path")
			return
		}
		w.notify(rel)

	case ports.EventCreate:
		child := filepath.Join(dir, event.Name)
		if !pathutil.IsRealDir(child) {
			return
		}
		if err := w.registry.registerRecursive(child); err != nil {
			log.Warn().Err(err).Str("dir", child).Msg("failed to watch new directory")
		}

	case ports.EventDelete:
		// A removed directory shows up as an invalid key on Reset.
	}
}

// notify passes relPath to the listener unless it is excluded or the
// watcher has been stopped.
func (w *Watcher) notify(relPath string) {
	if !w.running.Load() {
		return
	}

	if p, excluded := w.filter.Load().Excluded(relPath); excluded {
		log.Debug().
			Str("path", relPath).
			Str("pattern", p.String()).
			Msg("change excluded by pattern")
		return
	}

	log.Info().Str("path", relPath).Msg("file changed, triggering reload")

	if ref := w.listener.Load(); ref != nil && ref.l != nil {
		ref.l.OnChange(relPath)
	}
}
