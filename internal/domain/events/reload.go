package events

import "encoding/json"

// ReloadEvent tells browsers that a file under the document root changed.
type ReloadEvent struct {
	BaseEvent
	Path    string `json:"path"`
	LiveCSS bool   `json:"liveCSS"`
	LiveImg bool   `json:"liveImg"`
}

// NewReloadEvent creates a reload event for a root-relative path.
// Stylesheets and images are hot-swapped by the client when possible.
func NewReloadEvent(path string) *ReloadEvent {
	return &ReloadEvent{
		BaseEvent: newBase(EventTypeReload),
		Path:      path,
		LiveCSS:   true,
		LiveImg:   true,
	}
}

// ToJSON serializes the event to JSON.
func (e *ReloadEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AlertEvent asks browsers to display a message.
type AlertEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// NewAlertEvent creates a new alert event.
func NewAlertEvent(message string) *AlertEvent {
	return &AlertEvent{
		BaseEvent: newBase(EventTypeAlert),
		Message:   message,
	}
}

// ToJSON serializes the event to JSON.
func (e *AlertEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// HelloEvent is the server half of the handshake.
type HelloEvent struct {
	BaseEvent
	Protocols  []string `json:"protocols"`
	ServerName string   `json:"serverName"`
}

// NewHelloEvent creates the server hello announcing protocol 7.
func NewHelloEvent(serverName string) *HelloEvent {
	return &HelloEvent{
		BaseEvent:  newBase(EventTypeHello),
		Protocols:  []string{ProtocolOfficial7},
		ServerName: serverName,
	}
}

// ToJSON serializes the event to JSON.
func (e *HelloEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ClientMessage is any message received from a browser.
type ClientMessage struct {
	Command   EventType       `json:"command"`
	Protocols []string        `json:"protocols,omitempty"`
	URL       string          `json:"url,omitempty"`
	Plugins   json.RawMessage `json:"plugins,omitempty"`
}

// ParseClientMessage decodes a browser message.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SupportsProtocol reports whether the client offered the given protocol.
func (m *ClientMessage) SupportsProtocol(protocol string) bool {
	for _, p := range m.Protocols {
		if p == protocol {
			return true
		}
	}
	return false
}
