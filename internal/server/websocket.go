package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/snapshot"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the hub over HTTP: /ws streams frames and /latest
// returns the newest frame as JSON.
type Server struct {
	hub  *Hub
	log  log.Log
	http *http.Server
}

func New(addr string, hub *Hub, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{hub: hub, log: logger.With(log.String("component", "server"))}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/latest", s.handleLatest)
	s.http = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", log.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	shape, err := snapshot.ParseShape(r.URL.Query().Get("shape"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", log.Err(err))
		return
	}

	c := s.hub.subscribe(shape)
	done := make(chan struct{})
	go s.readLoop(conn, done)
	s.writeLoop(conn, c, done)
	s.hub.unsubscribe(c)
	_ = conn.Close()
}

// readLoop discards client input. The feed is read-only; reading only
// notices when the peer goes away.
func (s *Server) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				s.log.Debug("write failed", log.String("client", c.id), log.Err(err))
				return
			}
		}
	}
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	f := s.hub.Latest()
	if f == nil {
		http.Error(w, "no frame published yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(f); err != nil {
		s.log.Warn("encode latest", log.Err(err))
	}
}
