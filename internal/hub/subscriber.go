package hub

import (
	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/sync"
)

// ChannelSubscriber delivers events to a buffered channel.
type ChannelSubscriber struct {
	id   string
	send chan events.Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewChannelSubscriber creates a channel subscriber holding up to
// bufferSize undelivered events.
func NewChannelSubscriber(id string, bufferSize int) *ChannelSubscriber {
	return &ChannelSubscriber{
		id:   id,
		send: make(chan events.Event, bufferSize),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber's unique identifier.
func (s *ChannelSubscriber) ID() string {
	return s.id
}

// Send queues event. A full buffer means the consumer is too slow and is
// reported as a closed subscriber.
func (s *ChannelSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSubscriberClosed
	}

	select {
	case s.send <- event:
		return nil
	default:
		return domain.ErrSubscriberClosed
	}
}

// Close closes the event channel. Safe to call more than once.
func (s *ChannelSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.send)
	return nil
}

// Done returns a channel that's closed when the subscriber is closed.
func (s *ChannelSubscriber) Done() <-chan struct{} {
	return s.done
}

// Events returns the channel to receive events from.
func (s *ChannelSubscriber) Events() <-chan events.Event {
	return s.send
}

// LogSubscriber hands every event to a callback. The daemon uses one to log
// reloads at debug level.
type LogSubscriber struct {
	id    string
	logFn func(event events.Event)
	done  chan struct{}
	once  sync.Once
}

// NewLogSubscriber creates a log subscriber.
func NewLogSubscriber(id string, logFn func(event events.Event)) *LogSubscriber {
	return &LogSubscriber{
		id:    id,
		logFn: logFn,
		done:  make(chan struct{}),
	}
}

// ID returns the subscriber's unique identifier.
func (s *LogSubscriber) ID() string {
	return s.id
}

// Send passes event to the callback.
func (s *LogSubscriber) Send(event events.Event) error {
	select {
	case <-s.done:
		return domain.ErrSubscriberClosed
	default:
	}
	if s.logFn != nil {
		s.logFn(event)
	}
	return nil
}

// Close closes the subscriber.
func (s *LogSubscriber) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Done returns a channel that's closed when the subscriber is closed.
func (s *LogSubscriber) Done() <-chan struct{} {
	return s.done
}
