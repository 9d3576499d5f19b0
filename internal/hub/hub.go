// Package hub fans reload events out to connected browsers.
package hub

import (
	"sync/atomic"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/brianly1003/lrd/internal/sync"
	"github.com/rs/zerolog/log"
)

// broadcastBuffer bounds the number of events waiting for the run loop. A
// save-all in an editor can touch a few hundred files at once.
const broadcastBuffer = 256

// Hub is the central dispatcher between the file watcher and the browsers.
// All subscriber map mutations happen on the run goroutine.
type Hub struct {
	subscribers map[string]ports.Subscriber
	mu          sync.RWMutex

	broadcast  chan events.Event
	register   chan ports.Subscriber
	unregister chan string

	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

var _ ports.EventHub = (*Hub)(nil)

// New creates a stopped Hub.
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]ports.Subscriber),
		broadcast:   make(chan events.Event, broadcastBuffer),
		register:    make(chan ports.Subscriber),
		unregister:  make(chan string),
		done:        make(chan struct{}),
	}
}

// Start launches the dispatch loop. Calling Start on a running or stopped
// hub does nothing.
func (h *Hub) Start() error {
	select {
	case <-h.done:
		return domain.ErrHubNotRunning
	default:
	}
	if !h.running.CompareAndSwap(false, true) {
		return nil
	}

	go h.run()

	log.Debug().Msg("event hub started")
	return nil
}

// Stop ends the dispatch loop and closes every subscriber.
func (h *Hub) Stop() error {
	h.stopOnce.Do(func() {
		h.running.Store(false)
		close(h.done)

		h.mu.Lock()
		for _, sub := range h.subscribers {
			_ = sub.Close()
		}
		h.subscribers = make(map[string]ports.Subscriber)
		h.mu.Unlock()

		log.Debug().
			Uint64("published", h.published.Load()).
			Uint64("dropped", h.dropped.Load()).
			Msg("event hub stopped")
	})
	return nil
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case sub := <-h.register:
			h.mu.Lock()
			if old, ok := h.subscribers[sub.ID()]; ok && old != sub {
				_ = old.Close()
			}
			h.subscribers[sub.ID()] = sub
			h.mu.Unlock()
			log.Debug().Str("subscriber_id", sub.ID()).Msg("subscriber registered")

		case id := <-h.unregister:
			h.remove(id)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		_ = sub.Close()
		log.Debug().Str("subscriber_id", id).Msg("subscriber unregistered")
	}
}

func (h *Hub) deliver(event events.Event) {
	var failed []string

	h.mu.RLock()
	for id, sub := range h.subscribers {
		if err := sub.Send(event); err != nil {
			log.Warn().
				Str("subscriber_id", id).
				Str("command", string(event.Type())).
				Err(err).
				Msg("failed to send event to subscriber")
			failed = append(failed, id)
		}
	}
	h.mu.RUnlock()

	// A subscriber that cannot keep up is dropped; the browser reconnects.
	for _, id := range failed {
		h.remove(id)
	}
}

// Publish queues event for every subscriber. It never blocks: when the
// queue is full the event is dropped.
func (h *Hub) Publish(event events.Event) {
	if !h.running.Load() {
		log.Trace().Str("command", string(event.Type())).Msg("event discarded: hub not running")
		return
	}

	select {
	case h.broadcast <- event:
		h.published.Add(1)
	default:
		h.dropped.Add(1)
		log.Warn().
			Str("command", string(event.Type())).
			Msg("event dropped: broadcast channel full")
	}
}

// Subscribe adds sub. A subscriber added after Stop is closed immediately.
func (h *Hub) Subscribe(sub ports.Subscriber) {
	select {
	case h.register <- sub:
	case <-h.done:
		_ = sub.Close()
	}
}

// Unsubscribe removes and closes the subscriber with the given ID.
func (h *Hub) Unsubscribe(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// IsRunning reports whether the dispatch loop is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats returns how many events were queued and how many were dropped.
func (h *Hub) Stats() (published, dropped uint64) {
	return h.published.Load(), h.dropped.Load()
}
