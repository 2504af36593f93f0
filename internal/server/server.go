package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/olanrewaju08325/typing-tester/internal/handlers"
)

// Server owns the HTTP surface: REST room endpoints and the websocket
// upgrade path.
type Server struct {
	handler    *handlers.Handler
	httpServer *http.Server
}

func New(port int, handler *handlers.Handler) *Server {
	s := &Server{handler: handler}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
