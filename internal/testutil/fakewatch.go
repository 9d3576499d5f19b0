package testutil

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/ports"
)

// FakeKey is a scriptable ports.WatchKey.
type FakeKey struct {
	dir string

	mu     sync.Mutex
	events []ports.WatchEvent
	valid  bool
	resets int
}

// NewFakeKey creates a key that no FakeWatchService knows about.
func NewFakeKey(dir string) *FakeKey {
	return &FakeKey{dir: dir, valid: true}
}

// Dir returns the key's directory.
func (k *FakeKey) Dir() string {
	return k.dir
}

// PollEvents returns and clears the pending events.
func (k *FakeKey) PollEvents() []ports.WatchEvent {
	k.mu.Lock()
	defer k.mu.Unlock()
	events := k.events
	k.events = nil
	return events
}

// Reset records the call and returns the key's validity.
func (k *FakeKey) Reset() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.resets++
	return k.valid
}

// Cancel invalidates the key.
func (k *FakeKey) Cancel() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.valid = false
}

// ResetCount returns how many times Reset was called.
func (k *FakeKey) ResetCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.resets
}

// FakeWatchService implements ports.WatchService without touching the OS.
// Tests deliver batches with Signal and simulate removed directories with
// Invalidate.
type FakeWatchService struct {
	mu         sync.Mutex
	keys       map[string]*FakeKey
	registered []string
	failures   map[string]error
	closed     bool

	ready     chan ports.WatchKey
	takeErr   chan error
	done      chan struct{}
	closeOnce sync.Once
}

// NewFakeWatchService creates an open fake service.
func NewFakeWatchService() *FakeWatchService {
	return &FakeWatchService{
		keys:     make(map[string]*FakeKey),
		failures: make(map[string]error),
		ready:    make(chan ports.WatchKey, 128),
		takeErr:  make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// FailRegister makes Register(dir) return err.
func (f *FakeWatchService) FailRegister(dir string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[filepath.Clean(dir)] = err
}

// Register records dir and returns its key.
func (f *FakeWatchService) Register(dir string) (ports.WatchKey, error) {
	dir = filepath.Clean(dir)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, domain.ErrWatchServiceClosed
	}
	if err, ok := f.failures[dir]; ok {
		return nil, err
	}
	if k, ok := f.keys[dir]; ok {
		return k, nil
	}

	k := &FakeKey{dir: dir, valid: true}
	f.keys[dir] = k
	f.registered = append(f.registered, dir)
	return k, nil
}

// Take returns the next signalled key.
func (f *FakeWatchService) Take(ctx context.Context) (ports.WatchKey, error) {
	select {
	case <-f.done:
		return nil, domain.ErrWatchServiceClosed
	default:
	}

	select {
	case k := <-f.ready:
		return k, nil
	case err := <-f.takeErr:
		return nil, err
	case <-f.done:
		return nil, domain.ErrWatchServiceClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unblocks Take. Safe to call more than once.
func (f *FakeWatchService) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

// Key returns the key registered for dir, or nil.
func (f *FakeWatchService) Key(dir string) *FakeKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[filepath.Clean(dir)]
}

// Registered returns every directory registered so far, in order.
func (f *FakeWatchService) Registered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, len(f.registered))
	copy(result, f.registered)
	return result
}

// IsClosed reports whether Close was called.
func (f *FakeWatchService) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Signal queues a batch of events on the key registered for dir.
func (f *FakeWatchService) Signal(dir string, events ...ports.WatchEvent) {
	k := f.Key(dir)
	if k == nil {
		panic("testutil: no key registered for " + dir)
	}
	f.SignalKey(k, events...)
}

// SignalKey queues a batch on an arbitrary key, registered or not.
func (f *FakeWatchService) SignalKey(k *FakeKey, events ...ports.WatchEvent) {
	k.mu.Lock()
	k.events = append(k.events, events...)
	k.mu.Unlock()
	f.ready <- k
}

// Invalidate marks dir's key invalid and signals it with events.
func (f *FakeWatchService) Invalidate(dir string, events ...ports.WatchEvent) {
	k := f.Key(dir)
	if k == nil {
		panic("testutil: no key registered for " + dir)
	}

	f.mu.Lock()
	delete(f.keys, k.dir)
	f.mu.Unlock()

	k.mu.Lock()
	k.valid = false
	k.mu.Unlock()

	f.SignalKey(k, events...)
}

// FailTake makes the next Take return err.
func (f *FakeWatchService) FailTake(err error) {
	f.takeErr <- err
}

// Modify is shorthand for a modify event.
func Modify(name string) ports.WatchEvent {
	return ports.WatchEvent{Kind: ports.EventModify, Name: name}
}

// Create is shorthand for a create event.
func Create(name string) ports.WatchEvent {
	return ports.WatchEvent{Kind: ports.EventCreate, Name: name}
}

// Delete is shorthand for a delete event.
func Delete(name string) ports.WatchEvent {
	return ports.WatchEvent{Kind: ports.EventDelete, Name: name}
}

// Overflow is shorthand for an overflow event.
func Overflow() ports.WatchEvent {
	return ports.WatchEvent{Kind: ports.EventOverflow}
}

// Ensure the fakes implement the ports.
var (
	_ ports.WatchService = (*FakeWatchService)(nil)
	_ ports.WatchKey     = (*FakeKey)(nil)
)
