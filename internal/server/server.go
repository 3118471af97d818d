// Package server exposes the channel registry over a WebSocket endpoint so
// out-of-process test suites (browser components, e2e runners) can drive it.
//
// One registry is shared by every connection: a subscribe frame from one
// client and a simulate frame from another interact exactly as two calls on
// the same Registry would. Closing a socket tears down only that socket's
// subscriptions. This is harness plumbing for tests, not a stand-in for a
// production transport: there is no auth, no replay and no reconnect policy.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tarsonis125/mocket/internal/registry"
)

// Server serves the harness WebSocket endpoint.
type Server struct {
	reg  *registry.Registry
	addr string
	path string

	upgrader websocket.Upgrader
}

// New creates a Server around reg, listening on addr (host:port) at path.
func New(reg *registry.Registry, addr, path string) *Server {
	return &Server{
		reg:  reg,
		addr: addr,
		path: path,
		upgrader: websocket.Upgrader{
			// The harness runs on localhost for local test suites; browser
			// test runners connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start listens and serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	slog.Info("server: listening", "addr", ln.Addr().String(), "path", s.path)

	select {
	case <-ctx.Done():
		shctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shctx)
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("server: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	sess := newSession(s.reg, conn)
	slog.Info("server: client connected", "id", sess.id, "remote", r.RemoteAddr)
	sess.run()
	slog.Info("server: client disconnected", "id", sess.id)
}
