package livereload

import (
	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/domain/ports"
)

// Notifier turns file changes into reload commands on the event hub.
type Notifier struct {
	hub ports.EventHub
}

var _ ports.ChangeListener = (*Notifier)(nil)

// NewNotifier creates a notifier publishing to hub.
func NewNotifier(hub ports.EventHub) *Notifier {
	return &Notifier{hub: hub}
}

// OnChange publishes a reload for relPath. It never blocks.
func (n *Notifier) OnChange(relPath string) {
	n.hub.Publish(events.NewReloadEvent(relPath))
}

// Alert publishes a message for every connected browser.
func (n *Notifier) Alert(message string) {
	n.hub.Publish(events.NewAlertEvent(message))
}
