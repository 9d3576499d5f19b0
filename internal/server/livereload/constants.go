package livereload

import "time"

// WebSocket timing constants.
const (
	// writeWait is time allowed to write a message to the browser.
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong from the browser.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds client messages; hello and info are tiny.
	maxMessageSize = 64 * 1024

	// sendBufferSize is the per-client queue of outgoing messages.
	sendBufferSize = 256
)

// Routes served by the daemon.
const (
	PathWebSocket = "/livereload"
	PathScript    = "/livereload.js"
	PathHealth    = "/healthz"
)

// ServerName is announced in the hello handshake.
const ServerName = "lrd"
