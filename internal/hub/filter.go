package hub

import (
	"sync/atomic"

	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/brianly1003/lrd/internal/sync"
)

// GatedSubscriber holds back events until the browser has completed the
// hello handshake, then forwards only the commands the client accepts.
// Events sent while the gate is closed are discarded, not buffered: a reload
// that predates the handshake is already reflected in the page being loaded.
type GatedSubscriber struct {
	inner ports.Subscriber
	open  atomic.Bool

	mu       sync.RWMutex
	commands map[events.EventType]bool
}

// NewGatedSubscriber wraps inner with a closed gate.
func NewGatedSubscriber(inner ports.Subscriber) *GatedSubscriber {
	return &GatedSubscriber{inner: inner}
}

// ID returns the wrapped subscriber's ID.
func (g *GatedSubscriber) ID() string {
	return g.inner.ID()
}

// Send forwards event when the gate is open and the command is accepted.
func (g *GatedSubscriber) Send(event events.Event) error {
	if !g.shouldForward(event) {
		return nil
	}
	return g.inner.Send(event)
}

// Close closes the wrapped subscriber.
func (g *GatedSubscriber) Close() error {
	return g.inner.Close()
}

// Done returns the wrapped subscriber's done channel.
func (g *GatedSubscriber) Done() <-chan struct{} {
	return g.inner.Done()
}

// Open starts forwarding events.
func (g *GatedSubscriber) Open() {
	g.open.Store(true)
}

// IsOpen reports whether the handshake completed.
func (g *GatedSubscriber) IsOpen() bool {
	return g.open.Load()
}

// Accept restricts forwarding to the given commands. Calling it with no
// commands forwards everything again.
func (g *GatedSubscriber) Accept(commands ...events.EventType) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(commands) == 0 {
		g.commands = nil
		return
	}
	g.commands = make(map[events.EventType]bool, len(commands))
	for _, c := range commands {
		g.commands[c] = true
	}
}

func (g *GatedSubscriber) shouldForward(event events.Event) bool {
	if !g.open.Load() {
		return false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.commands == nil {
		return true
	}
	return g.commands[event.Type()]
}
