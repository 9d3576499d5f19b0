package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventType_Values(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeReload, "reload"},
		{EventTypeAlert, "alert"},
		{EventTypeHello, "hello"},
		{EventTypeInfo, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("EventType = %s, want %s", tt.eventType, tt.expected)
			}
		})
	}
}

func TestNewReloadEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewReloadEvent("src/a.css")

	if event.Type() != EventTypeReload {
		t.Errorf("Type() = %v, want %v", event.Type(), EventTypeReload)
	}
	if event.Timestamp().Before(before) {
		t.Error("Timestamp() should not be before creation")
	}
	if event.Path != "src/a.css" {
		t.Errorf("Path = %q, want %q", event.Path, "src/a.css")
	}
	if !event.LiveCSS {
		t.Error("LiveCSS should be true")
	}
}

func TestReloadEvent_ToJSON(t *testing.T) {
	data, err := NewReloadEvent("index.html").ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if decoded["command"] != "reload" {
		t.Errorf("command = %v, want reload", decoded["command"])
	}
	if decoded["path"] != "index.html" {
		t.Errorf("path = %v, want index.html", decoded["path"])
	}
	if decoded["liveCSS"] != true {
		t.Errorf("liveCSS = %v, want true", decoded["liveCSS"])
	}
	if _, ok := decoded["EventTime"]; ok {
		t.Error("timestamp should not be serialized")
	}
}

func TestHelloEvent_ToJSON(t *testing.T) {
	data, err := NewHelloEvent("lrd").ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded struct {
		Command    string   `json:"command"`
		Protocols  []string `json:"protocols"`
		ServerName string   `json:"serverName"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if decoded.Command != "hello" {
		t.Errorf("command = %q, want hello", decoded.Command)
	}
	if len(decoded.Protocols) != 1 || decoded.Protocols[0] != ProtocolOfficial7 {
		t.Errorf("protocols = %v, want [%s]", decoded.Protocols, ProtocolOfficial7)
	}
	if decoded.ServerName != "lrd" {
		t.Errorf("serverName = %q, want lrd", decoded.ServerName)
	}
}

func TestAlertEvent_ToJSON(t *testing.T) {
	data, err := NewAlertEvent("watcher stopped").ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if string(data) != `{"command":"alert","message":"watcher stopped"}` {
		t.Errorf("ToJSON() = %s", data)
	}
}

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCmd   EventType
		wantProto bool
		wantErr   bool
	}{
		{
			name:      "hello with protocol 7",
			input:     `{"command":"hello","protocols":["http://livereload.com/protocols/official-6","http://livereload.com/protocols/official-7"]}`,
			wantCmd:   EventTypeHello,
			wantProto: true,
		},
		{
			name:    "hello without protocol 7",
			input:   `{"command":"hello","protocols":["http://livereload.com/protocols/official-6"]}`,
			wantCmd: EventTypeHello,
		},
		{
			name:    "info",
			input:   `{"command":"info","url":"http://localhost/","plugins":{}}`,
			wantCmd: EventTypeInfo,
		},
		{
			name:    "malformed",
			input:   `{"command":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseClientMessage([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClientMessage() error = %v", err)
			}
			if msg.Command != tt.wantCmd {
				t.Errorf("Command = %q, want %q", msg.Command, tt.wantCmd)
			}
			if got := msg.SupportsProtocol(ProtocolOfficial7); got != tt.wantProto {
				t.Errorf("SupportsProtocol() = %v, want %v", got, tt.wantProto)
			}
		})
	}
}
