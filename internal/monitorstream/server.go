// Package monitorstream implements an optional websocket fan-out of a
// running simulation's broadcast state (spec §1 "external collaborator":
// a host dispatcher bridging the engine to a browser/worker
// environment). It is an adapter the engine never depends on — a host
// binary wires it up only if it wants a live view.
//
// Grounded on the teacher's internal/network/websocket.go
// WebSocketListen/WebSocketServer (the Upgrader + per-client Clients map
// + background http.Server), generalized from a generic bidirectional
// socket to a one-way fan-out of simulation frames.
package monitorstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected viewer, grounded on the teacher's
// WebSocketConn: a send channel drained by its own writer goroutine so
// one slow reader can never stall Publish for everyone else.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server fans out Frame payloads to every connected client over
// websocket. Safe for concurrent use; Publish is called from whatever
// goroutine drives the simulation loop.
type Server struct {
	mu       sync.RWMutex
	clients  map[string]*client
	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer creates a fan-out server bound to addr (e.g. ":7777"),
// serving upgrades at path.
func NewServer(addr, path string) *Server {
	s := &Server{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleUpgrade)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start runs the HTTP server in the background (grounded on the
// teacher's "go server.Server.ListenAndServe()" in WebSocketListen).
// Errors other than http.ErrServerClosed are reported on errCh.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Stop gracefully shuts down the HTTP server and disconnects every
// client.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for id, c := range s.clients {
		close(c.send)
		delete(s.clients, id)
	}
	s.mu.Unlock()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		id:   fmt.Sprintf("viewer_%d", time.Now().UnixNano()),
		conn: conn,
		send: make(chan []byte, 64),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains c.send until it is closed (on Stop or a write
// error), then closes the underlying connection.
func (s *Server) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(c.id)
			return
		}
	}
}

// readPump only exists to notice a closed client; this is a one-way
// fan-out, so any inbound message is discarded.
func (s *Server) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c.id)
			return
		}
	}
}

func (s *Server) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		delete(s.clients, id)
		select {
		case <-c.send:
		default:
			close(c.send)
		}
	}
}

// Publish fans payload out to every connected client without blocking;
// a client whose send buffer is full has its oldest frame dropped in
// favor of the newest one (grounded on the teacher's readMessages
// "channel full, drop oldest message" policy).
func (s *Server) Publish(payload []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- payload:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- payload:
			default:
			}
		}
	}
}

// ClientCount reports how many viewers are currently connected.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
