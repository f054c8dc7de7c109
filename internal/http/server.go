// Package http is the presentation boundary: a JSON API over the ledger.
// It renders aggregates and the record table and translates user actions
// into ledger calls; it owns no business state of its own.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cuentas/internal/service"
)

type Server struct {
	http.Server
	ledger      *service.Ledger
	monthNames  []string
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. monthNames supplies the locale-dependent labels rendered
// next to numeric months.
func NewServer(addr string, ledger *service.Ledger, monthNames []string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		monthNames:  monthNames,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/meta", s.withMiddleware(s.handleMeta))
	mux.HandleFunc("/api/stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("/api/annual", s.withMiddleware(s.handleAnnual))
	mux.HandleFunc("/api/records", s.withMiddleware(s.handleRecords))
	mux.HandleFunc("/api/records/", s.withMiddleware(s.handleRecordByID))
	mux.HandleFunc("/export.csv", s.withMiddleware(s.handleExport))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
