// Package watchservice adapts fsnotify to a key-per-directory watch service.
//
// fsnotify delivers a single stream of events for every watched path. The
// Service routes each event to the key of the directory that contains the
// entry, batches events per key, and hands out signalled keys from Take.
// Consumers drain a key with PollEvents and re-arm it with Reset; a key whose
// directory disappeared reports false from Reset.
package watchservice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/brianly1003/lrd/internal/sync"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Service implements ports.WatchService on top of fsnotify.
type Service struct {
	fsw *fsnotify.Watcher

	mu     sync.Mutex
	keys   map[string]*Key
	queue  []*Key
	closed bool

	// notify has capacity 1 and is poked whenever queue grows.
	notify chan struct{}
	done   chan struct{}
	exited chan struct{}
}

var _ ports.WatchService = (*Service)(nil)

// New creates a watch service and starts its dispatch goroutine.
func New() (*Service, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	s := &Service{
		fsw:    fsw,
		keys:   make(map[string]*Key),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go s.dispatch()

	return s, nil
}

// Register starts watching dir. Registering a directory twice returns the
// existing key.
func (s *Service) Register(dir string) (ports.WatchKey, error) {
	dir = filepath.Clean(dir)

	info, err := os.Lstat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrWatchServiceClosed
	}
	if k, ok := s.keys[dir]; ok {
		s.mu.Unlock()
		return k, nil
	}
	s.mu.Unlock()

	// fsnotify takes its own locks; never call into it while holding s.mu.
	if err := s.fsw.Add(dir); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrWatchServiceClosed
	}
	if k, ok := s.keys[dir]; ok {
		return k, nil
	}

	k := &Key{svc: s, dir: dir, valid: true}
	s.keys[dir] = k

	log.Trace().Str("dir", dir).Msg("directory registered")
	return k, nil
}

// Take blocks until a key is signalled, ctx is done, or the service closes.
func (s *Service) Take(ctx context.Context) (ports.WatchKey, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, domain.ErrWatchServiceClosed
		}
		if len(s.queue) > 0 {
			k := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return k, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops the service. It is safe to call more than once.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for dir, k := range s.keys {
		k.valid = false
		delete(s.keys, dir)
	}
	s.queue = nil
	close(s.done)
	s.mu.Unlock()

	err := s.fsw.Close()
	<-s.exited
	return err
}

// WatchCount returns the number of directories currently watched.
func (s *Service) WatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// dispatch routes fsnotify events and errors until the watcher is closed.
func (s *Service) dispatch() {
	defer close(s.exited)

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.handleError(err)
		}
	}
}

// handleEvent queues event on the key of its parent directory. Removal or
// rename of a watched directory itself invalidates that directory's key.
func (s *Service) handleEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	var kind ports.EventKind
	switch {
	case event.Has(fsnotify.Create):
		kind = ports.EventCreate
	case event.Has(fsnotify.Write):
		kind = ports.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = ports.EventDelete
	default:
		// Chmod only
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	removeSelf := false
	if kind == ports.EventDelete {
		if self, ok := s.keys[name]; ok {
			s.invalidateLocked(self)
			removeSelf = true
		}
	}

	if parent, ok := s.keys[filepath.Dir(name)]; ok {
		parent.events = append(parent.events, ports.WatchEvent{
			Kind: kind,
			Name: filepath.Base(name),
		})
		s.signalLocked(parent)
	} else if !removeSelf {
		log.Trace().
			Str("path", name).
			Str("op", event.Op.String()).
			Msg("event outside watched directories")
	}
	s.mu.Unlock()

	if removeSelf {
		// The kernel usually dropped the watch already.
		_ = s.fsw.Remove(name)
	}
}

// handleError turns a queue overflow into an overflow event on every key.
func (s *Service) handleError(err error) {
	if err != fsnotify.ErrEventOverflow {
		log.Warn().Err(err).Msg("watch service error")
		return
	}

	log.Warn().Msg("watch service event queue overflowed")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.keys {
		k.events = append(k.events, ports.WatchEvent{Kind: ports.EventOverflow})
		s.signalLocked(k)
	}
}

func (s *Service) signalLocked(k *Key) {
	if k.signalled {
		return
	}
	k.signalled = true
	s.enqueueLocked(k)
}

func (s *Service) enqueueLocked(k *Key) {
	s.queue = append(s.queue, k)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// invalidateLocked drops k from the watch table and signals it so the
// consumer observes the invalid state on its next Reset.
func (s *Service) invalidateLocked(k *Key) {
	if !k.valid {
		return
	}
	k.valid = false
	if s.keys[k.dir] == k {
		delete(s.keys, k.dir)
	}
	s.signalLocked(k)
	log.Debug().Str("dir", k.dir).Msg("watch key invalidated")
}
