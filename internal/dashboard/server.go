// Package dashboard provides a real-time WebSocket view of sleep
// tracking state.
//
// The dashboard broadcasts session snapshots and statistics to
// connected WebSocket clients, so a browser tab can watch sessions
// start, stop, and get rated from any process writing to the same
// store.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/tracker"
)

// MessageType defines the type of dashboard message.
type MessageType string

const (
	// MessageTypeSnapshot carries the full tracking state: the open
	// session, if any, and the history.
	MessageTypeSnapshot MessageType = "snapshot"

	// MessageTypeStats carries recomputed sleep statistics.
	MessageTypeStats MessageType = "stats"

	// MessageTypeSyncComplete indicates a replica sync finished.
	MessageTypeSyncComplete MessageType = "sync_complete"
)

// Message represents a dashboard broadcast message.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SessionData is the wire form of a session.
type SessionData struct {
	ID      int64     `json:"id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Quality int       `json:"quality"`
	Open    bool      `json:"open"`
}

// SnapshotData contains the full tracking state.
type SnapshotData struct {
	Current *SessionData  `json:"current,omitempty"`
	History []SessionData `json:"history"`
}

// StatsData contains aggregate sleep statistics.
type StatsData struct {
	Nights     int     `json:"nights"`
	Rated      int     `json:"rated"`
	AvgQuality float64 `json:"avg_quality"`
	AvgSleepMs int64   `json:"avg_sleep_ms"`
	LongestMs  int64   `json:"longest_ms"`
	ShortestMs int64   `json:"shortest_ms"`
}

// SyncCompleteData contains replica sync information.
type SyncCompleteData struct {
	Duration time.Duration `json:"duration"`
}

func sessionData(s *sleep.Session) SessionData {
	return SessionData{
		ID:      s.ID,
		Start:   s.Start,
		End:     s.End,
		Quality: s.Quality,
		Open:    s.Open(),
	}
}

// NewSnapshotMessage builds a snapshot broadcast from tracker state.
func NewSnapshotMessage(snap tracker.Snapshot) (Message, error) {
	data := SnapshotData{History: make([]SessionData, 0, len(snap.History))}
	if snap.Current != nil {
		cur := sessionData(snap.Current)
		data.Current = &cur
	}
	for _, s := range snap.History {
		data.History = append(data.History, sessionData(s))
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return Message{Type: MessageTypeSnapshot, Timestamp: time.Now(), Data: raw}, nil
}

// NewStatsMessage builds a stats broadcast.
func NewStatsMessage(st sleep.Stats) (Message, error) {
	data := StatsData{
		Nights:     st.Nights,
		Rated:      st.Rated,
		AvgQuality: st.AvgQuality,
		AvgSleepMs: st.AvgSleep.Milliseconds(),
		LongestMs:  st.Longest.Milliseconds(),
		ShortestMs: st.Shortest.Milliseconds(),
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: raw}, nil
}

// NewSyncCompleteMessage builds a sync completion broadcast.
func NewSyncCompleteMessage(d time.Duration) (Message, error) {
	raw, err := json.Marshal(SyncCompleteData{Duration: d})
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal sync data: %w", err)
	}
	return Message{Type: MessageTypeSyncComplete, Timestamp: time.Now(), Data: raw}, nil
}

// Server manages WebSocket connections and broadcasts dashboard
// messages.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	// Last message per type, replayed to newly connected clients.
	last   map[MessageType]Message
	lastMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on (default: 127.0.0.1:8080). Port 0 picks a free
	// port.
	Addr string

	// Logger for server activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "127.0.0.1:8080",
		Logger: log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
	}
}

// NewServer creates a new dashboard WebSocket server.
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	addr := config.Addr
	if addr == "" {
		addr = DefaultConfig().Addr
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      addr,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		last:      make(map[MessageType]Message),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins the HTTP server and WebSocket handler.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on http://%s", s.GetAddr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()

	s.logger.Println("Dashboard server stopped")
	return nil
}

// Broadcast sends a message to all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// broadcastLoop handles message broadcasting to all clients.
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

			s.lastMu.Lock()
			s.last[msg.Type] = msg
			s.lastMu.Unlock()

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send outside the read lock so a slow client cannot
			// block new connections.
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", clientCount)

	// Replay the last known state so the client does not wait for the
	// next change.
	for _, welcome := range s.welcomeMessages() {
		data, err := json.Marshal(welcome)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = conn.Write(ctx, websocket.MessageText, data)
		cancel()
	}

	go s.readLoop(conn)
}

// welcomeMessages returns the messages sent to a new client: the last
// snapshot and stats if any were broadcast, otherwise an empty
// snapshot.
func (s *Server) welcomeMessages() []Message {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()

	var msgs []Message
	if msg, ok := s.last[MessageTypeSnapshot]; ok {
		msgs = append(msgs, msg)
	} else {
		msgs = append(msgs, Message{Type: MessageTypeSnapshot, Timestamp: time.Now()})
	}
	if msg, ok := s.last[MessageTypeStats]; ok {
		msgs = append(msgs, msg)
	}
	return msgs
}

// readLoop keeps the WebSocket connection alive and handles client
// disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
		// Client messages are ignored; the read keeps the connection
		// alive.
	}
}

// removeClient safely removes a client connection.
func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": clientCount,
	})
}

// GetAddr returns the server's listening address.
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
