package posefeed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// Trackers connect from whatever host runs the vision pipeline.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server accepts pose frames over a websocket at /ws and forwards them to
// the sink. One tracker drives the session at a time; frames from multiple
// connections interleave at the sink, which tolerates that by design.
type Server struct {
	dispatcher *Dispatcher
	httpServer *http.Server

	mu     sync.Mutex
	frames int64
}

// NewServer builds a server feeding the dispatcher.
func NewServer(d *Dispatcher) *Server {
	return &Server{dispatcher: d}
}

// Frames returns the number of pose frames received so far.
func (s *Server) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Run serves until the context is canceled. The listen error is returned
// except for the orderly-shutdown case.
func (s *Server) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("pose feed listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("tracker connected", "remote", conn.RemoteAddr().String())

	for {
		var frame PoseFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("tracker read failed", "error", err)
			} else {
				slog.Info("tracker disconnected", "remote", conn.RemoteAddr().String())
			}
			return
		}

		s.mu.Lock()
		s.frames++
		s.dispatcher.Apply(frame)
		s.mu.Unlock()
	}
}
