package livereload

import (
	"github.com/brianly1003/lrd/internal/domain"
	"github.com/brianly1003/lrd/internal/domain/events"
)

// ClientSubscriber exposes a Client to the event hub.
type ClientSubscriber struct {
	client *Client
}

// NewClientSubscriber creates a subscriber from a WebSocket client.
func NewClientSubscriber(client *Client) *ClientSubscriber {
	return &ClientSubscriber{client: client}
}

// ID returns the client ID.
func (s *ClientSubscriber) ID() string {
	return s.client.ID()
}

// Send serializes event and queues it on the client.
func (s *ClientSubscriber) Send(event events.Event) error {
	if s.client.IsClosed() {
		return domain.ErrSubscriberClosed
	}

	data, err := event.ToJSON()
	if err != nil {
		return err
	}

	if !s.client.Send(data) {
		return domain.ErrSubscriberClosed
	}
	return nil
}

// Close closes the client.
func (s *ClientSubscriber) Close() error {
	s.client.Close()
	return nil
}

// Done returns a channel that's closed when the client is closed.
func (s *ClientSubscriber) Done() <-chan struct{} {
	return s.client.Done()
}
