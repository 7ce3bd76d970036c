// Package api exposes the guidance engine over HTTP: status and vehicle
// queries, operator commands, and the websocket console endpoint.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/command"
	"github.com/openuas/catchleader/internal/guidance"
)

const statusTimeout = 2 * time.Second

// Engine is the guidance surface the API needs.
type Engine interface {
	Status(ctx context.Context) (guidance.StatusSnapshot, error)
	SubmitCommand(cmd command.Command)
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	engine     Engine
	wsHandler  http.HandlerFunc
}

// NewServer builds the API server. wsHandler serves the operator console
// websocket and may be nil when no console is attached.
func NewServer(addr string, engine Engine, wsHandler http.HandlerFunc, logger *zap.Logger) *Server {
	server := &Server{
		logger:    logger,
		engine:    engine,
		wsHandler: wsHandler,
	}
	server.httpServer = &http.Server{
		Addr:    addr,
		Handler: server.setupRoutes(),
	}
	return server
}

func (s *Server) Start() error {
	s.logger.Info("starting api server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/vehicles", s.handleGetVehicles)
	mux.HandleFunc("POST /api/command", s.handlePostCommand)
	if s.wsHandler != nil {
		mux.HandleFunc("GET /ws", s.wsHandler)
	}

	return s.recoveryMiddleware(mux)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	snap, err := s.engine.Status(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "engine not responding")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetVehicles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	snap, err := s.engine.Status(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "engine not responding")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"vehicles": snap.Vehicles})
}

type commandRequest struct {
	Command string `json:"command"`
}

// handlePostCommand decodes and validates the command synchronously, so the
// caller learns about malformed input, then hands it to the engine.
func (s *Server) handlePostCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd, err := command.Parse(req.Command)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.engine.SubmitCommand(cmd)
	respondJSON(w, http.StatusAccepted, map[string]string{"result": "accepted"})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.logger.Error("handler panic",
					zap.Any("panic", err),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				respondError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
