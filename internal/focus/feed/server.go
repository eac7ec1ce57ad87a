// Package feed serves sync results and stored sessions to local clients.
//
// Sync reports are broadcast to WebSocket clients on /ws; stored sessions
// can be fetched from /sessions.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/focuslog/focuslog/internal/focus/schema"
	"github.com/focuslog/focuslog/internal/logging"
)

// MessageType defines the type of feed message
type MessageType string

const (
	// MessageTypeSyncReport carries the result of a sync run
	MessageTypeSyncReport MessageType = "sync_report"

	// MessageTypeStats carries session store statistics
	MessageTypeStats MessageType = "stats"
)

// Message is one broadcast frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StatsData summarizes the session store.
type StatsData struct {
	Sessions int             `json:"sessions"`
	Latest   *SessionPayload `json:"latest,omitempty"`
}

// SessionPayload is the wire form of a stored session.
type SessionPayload struct {
	ID       int64     `json:"id"`
	Goal     string    `json:"goal"`
	Duration int       `json:"duration"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func newSessionPayload(s *schema.Session) *SessionPayload {
	return &SessionPayload{
		ID:       s.ID,
		Goal:     s.Goal,
		Duration: s.Duration,
		Start:    s.Start,
		End:      s.End(),
	}
}

// SessionSource is the read side of the session store.
type SessionSource interface {
	SessionsBetween(ctx context.Context, from, to time.Time) ([]*schema.Session, error)
	CountSessions(ctx context.Context) (int, error)
	LatestSession(ctx context.Context) (*schema.Session, error)
}

// Config holds server configuration
type Config struct {
	// Host to bind (default: 127.0.0.1)
	Host string

	// Port to listen on; 0 picks a free port
	Port int

	// Sessions backs /sessions and stats messages. Optional.
	Sessions SessionSource

	// Logger for server activity; nil discards
	Logger *logging.Logger
}

// Server manages WebSocket clients and broadcasts feed messages
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	sessions SessionSource

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logging.Logger
}

// NewServer creates a feed server. Call Start to listen.
func NewServer(config Config) *Server {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		sessions:  config.Sessions,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logging.OrNop(config.Logger).WithComponent("feed"),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sessions", s.handleSessions)
	return mux
}

// Start begins listening and broadcasting.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("feed server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("feed server error", "error", err)
		}
	}()

	return nil
}

// Stop closes all clients and shuts the server down.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("feed server shutdown: %w", err)
		}
	}

	s.wg.Wait()
	s.logger.Info("feed server stopped")
	return nil
}

// Broadcast queues msg for every connected client. When the queue is full
// the message is dropped.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Warn("broadcast queue full, dropping message", "type", string(msg.Type))
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to marshal message", "error", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.logger.Debug("failed to send to client", "error", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Debug("client connected", "clients", count)

	if msg, err := s.statsMessage(r.Context()); err == nil {
		if data, err := json.Marshal(msg); err == nil {
			ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
			_ = conn.Write(ctx, websocket.MessageText, data)
			cancel()
		}
	}

	go s.readLoop(conn)
}

// readLoop keeps the connection open until the client goes away.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, ok := s.clients[conn]; !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, conn)
	count := len(s.clients)
	s.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Debug("client disconnected", "clients", count)
}

// statsMessage builds a stats frame; it fails when no session source is set.
func (s *Server) statsMessage(ctx context.Context) (Message, error) {
	if s.sessions == nil {
		return Message{}, errors.New("no session source")
	}
	count, err := s.sessions.CountSessions(ctx)
	if err != nil {
		return Message{}, err
	}
	stats := StatsData{Sessions: count}
	latest, err := s.sessions.LatestSession(ctx)
	if err != nil {
		return Message{}, err
	}
	if latest != nil {
		stats.Latest = newSessionPayload(latest)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: data}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
