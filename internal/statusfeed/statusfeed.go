// Package statusfeed exposes the live state of every supervised tailer
// task over a websocket, the way the teacher dashboard broadcast parsed
// log entries to a browser — repurposed here to watch an in-flight fleet
// of file tailers rather than anomalies.
package statusfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dhoenisch/flicker/internal/scheduler"
)

// Snapshot is one task's state at a point in time, sent to every
// connected client.
type Snapshot struct {
	Path         string    `json:"path"`
	State        string    `json:"state"`
	LinesShipped int       `json:"lines_shipped"`
	LastFlush    time.Time `json:"last_flush,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// Server serves a websocket feed of Supervisor task state.
type Server struct {
	host  string
	port  int
	tasks []*scheduler.FlushScheduler

	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan []Snapshot
}

// NewServer builds a status feed server for tasks, listening on
// host:port.
func NewServer(host string, port int, tasks []*scheduler.FlushScheduler) *Server {
	return &Server{
		host:  host,
		port:  port,
		tasks: tasks,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []Snapshot, 10),
	}
}

// Start runs the feed server until ctx is cancelled. pollEvery controls
// how often task state is snapshotted and broadcast.
func (s *Server) Start(ctx context.Context, pollEvery time.Duration) {
	go s.snapshotLoop(ctx, pollEvery)
	go s.broadcastLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("statusfeed: listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("statusfeed: server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}

func (s *Server) snapshotLoop(ctx context.Context, pollEvery time.Duration) {
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case s.broadcast <- s.snapshot():
			default:
			}
		}
	}
}

func (s *Server) snapshot() []Snapshot {
	out := make([]Snapshot, len(s.tasks))
	for i, t := range s.tasks {
		snap := Snapshot{
			Path:         t.Path,
			State:        string(t.State()),
			LinesShipped: t.LinesShipped,
			LastFlush:    t.LastFlush,
		}
		if t.LastError != nil {
			snap.LastError = t.LastError.Error()
		}
		out[i] = snap
	}
	return out
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snaps := <-s.broadcast:
			s.clientsMu.RLock()
			var dead []*websocket.Conn
			for client := range s.clients {
				if err := client.WriteJSON(snaps); err != nil {
					log.Printf("statusfeed: websocket write error: %v", err)
					client.Close()
					dead = append(dead, client)
				}
			}
			s.clientsMu.RUnlock()

			if len(dead) > 0 {
				s.clientsMu.Lock()
				for _, client := range dead {
					delete(s.clients, client)
				}
				s.clientsMu.Unlock()
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("statusfeed: upgrade error: %v", err)
		return
	}
	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			s.removeClient(conn)
			break
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, conn)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshot())
}
