// Package livereload serves the document root and pushes reload commands to
// browsers over WebSocket using LiveReload protocol 7.
//
// A browser loads /livereload.js, which connects to /livereload and sends a
// hello offering protocol 7. Only after the server answers the hello does the
// browser receive reload commands:
//
//	browser -> {"command":"hello","protocols":["http://livereload.com/protocols/official-7"]}
//	server  -> {"command":"hello","protocols":[...],"serverName":"lrd"}
//	server  -> {"command":"reload","path":"css/site.css","liveCSS":true,"liveImg":true}
package livereload

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/brianly1003/lrd/internal/domain/events"
	"github.com/brianly1003/lrd/internal/domain/ports"
	"github.com/brianly1003/lrd/internal/hub"
	"github.com/brianly1003/lrd/internal/sync"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

//go:embed livereload.js
var clientScript []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Pages are often served by another dev server on a different port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connection pairs a client with the gate that holds reloads back until
// the handshake.
type connection struct {
	client *Client
	gate   *hub.GatedSubscriber
}

// Server is the LiveReload HTTP and WebSocket server.
type Server struct {
	addr    string
	docroot string
	hub     ports.EventHub
	handler http.Handler

	server   *http.Server
	listener net.Listener

	mu    sync.RWMutex
	conns map[string]*connection
}

// NewServer creates a server listening on host:port. When docroot is not
// empty, requests that match no other route are served from it.
func NewServer(host string, port int, docroot string, eventHub ports.EventHub) *Server {
	s := &Server{
		addr:    net.JoinHostPort(host, fmt.Sprint(port)),
		docroot: docroot,
		hub:     eventHub,
		conns:   make(map[string]*connection),
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
		// No read or write timeouts: they would cut long-lived WebSockets.
		// The pumps manage their own deadlines.
	}
	return s
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc(PathWebSocket, s.handleWebSocket)
	router.HandleFunc(PathScript, s.handleScript).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(PathHealth, s.handleHealth).Methods(http.MethodGet)

	if s.docroot != "" {
		router.PathPrefix("/").Handler(noCache(http.FileServer(http.Dir(s.docroot))))
	}

	return router
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("livereload server starting")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("livereload server error")
		}
	}()

	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop closes every client and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("livereload server stopping")

	s.mu.Lock()
	for _, c := range s.conns {
		c.client.Close()
	}
	s.conns = make(map[string]*connection)
	s.mu.Unlock()

	return s.server.Shutdown(ctx)
}

// ClientCount returns the number of connected browsers.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// ReadyCount returns the number of browsers that completed the handshake.
func (s *Server) ReadyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.conns {
		if c.gate.IsOpen() {
			n++
		}
	}
	return n
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(conn, s.handleMessage, func(id string) {
		if s.hub != nil {
			s.hub.Unsubscribe(id)
		}
		s.removeClient(id)
	})
	gate := hub.NewGatedSubscriber(NewClientSubscriber(client))

	s.mu.Lock()
	s.conns[client.ID()] = &connection{client: client, gate: gate}
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Subscribe(gate)
	}

	log.Debug().
		Str("client_id", client.ID()).
		Str("remote_addr", conn.RemoteAddr().String()).
		Msg("browser connected")

	client.Start()
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	log.Debug().Str("client_id", id).Msg("browser disconnected")
}

func (s *Server) gate(id string) *hub.GatedSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.conns[id]; ok {
		return c.gate
	}
	return nil
}

// handleMessage runs on the client's read pump.
func (s *Server) handleMessage(c *Client, message []byte) {
	msg, err := events.ParseClientMessage(message)
	if err != nil {
		log.Debug().Err(err).Str("client_id", c.ID()).Msg("malformed client message")
		return
	}

	switch msg.Command {
	case events.EventTypeHello:
		if !msg.SupportsProtocol(events.ProtocolOfficial7) {
			log.Warn().
				Str("client_id", c.ID()).
				Strs("protocols", msg.Protocols).
				Msg("browser does not speak protocol 7, closing")
			c.Close()
			return
		}

		data, err := events.NewHelloEvent(ServerName).ToJSON()
		if err != nil {
			log.Error().Err(err).Msg("failed to encode hello")
			return
		}
		c.Send(data)

		if g := s.gate(c.ID()); g != nil {
			g.Open()
		}
		log.Info().Str("client_id", c.ID()).Msg("browser ready for reloads")

	case events.EventTypeInfo:
		log.Debug().Str("client_id", c.ID()).Str("url", msg.URL).Msg("browser info")

	default:
		log.Debug().
			Str("client_id", c.ID()).
			Str("command", string(msg.Command)).
			Msg("ignoring client command")
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(clientScript)
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Clients: s.ClientCount(),
	})
}

// noCache keeps browsers from serving stale assets after a reload.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}
