// Package server exposes the orchestration core over HTTP and
// WebSocket. It owns no orchestration logic: every handler resolves to
// a gateway dispatch, a council run, or a pure classifier call.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/config"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/council"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
)

// Server hosts the wind tunnel API.
type Server struct {
	cfg      *config.Config
	gw       *gateway.Gateway
	engine   *council.Engine
	orch     *council.Orchestrator
	upgrader websocket.Upgrader
	log      zerolog.Logger

	httpServer *http.Server
}

// New builds a Server over an already-constructed gateway and engine.
func New(cfg *config.Config, gw *gateway.Gateway, engine *council.Engine, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		gw:     gw,
		engine: engine,
		orch:   council.NewOrchestrator(gw, log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from any origin for development
				// In production, restrict this to specific origins
				return true
			},
		},
		log: log.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /ws/chat", s.handleChatWS)
	mux.HandleFunc("POST /api/v1/council", s.handleCouncil)
	mux.HandleFunc("POST /api/v1/route", s.handleRoute)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	RegisterMetricsRoutes(mux)

	s.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.withRequestID(mux),
	}
	return s
}

// withRequestID tags every request with a UUID for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		s.log.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }
