package http

import (
	"context"
	"net/http"
	"time"
)

// Server envuelve el http.Server estándar con timeouts configurados.
type Server struct {
	srv *http.Server
}

// NewServer crea el servidor listo para Start.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Start bloquea sirviendo requests hasta Shutdown o error fatal.
func (s *Server) Start() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drena conexiones en curso hasta que el contexto expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
