// Package web serves the operator console: read-only JSON views of the
// gateway state, a websocket alert feed, the metrics endpoint and the PDF
// threat report.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/adapters/reporting"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
)

// Server handles HTTP and WebSocket connections for the operator console.
type Server struct {
	Addr      string
	Gate      ports.Gatekeeper
	Store     ports.Storage
	WSManager *WSManager
	Exporter  *reporting.PDFExporter

	srv *http.Server
}

// NewServer creates the console server.
func NewServer(addr string, gate ports.Gatekeeper, store ports.Storage) *Server {
	return &Server{
		Addr:      addr,
		Gate:      gate,
		Store:     store,
		WSManager: NewWSManager(),
		Exporter:  reporting.NewPDFExporter(),
	}
}

// Run starts the server and blocks until ctx is cancelled or ListenAndServe
// fails.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.Addr,
		Handler: SetupRoutes(s),
	}

	go func() {
		<-ctx.Done()
		log.Println("Console server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Console server shutdown error: %v", err)
		}
	}()

	log.Printf("Console server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
