// Package server exposes the timeline pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/timelineai/internal/stream"
)

// DefaultMaxConcurrent is the number of pipelines allowed at once.
const DefaultMaxConcurrent = 8

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	MaxConcurrent int
	// AllowOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	AllowOrigin string
}

// Server is the HTTP front end of the orchestrator.
type Server struct {
	orchestrator *stream.Orchestrator
	limiter      *Limiter
	engine       *gin.Engine
	logger       *slog.Logger
	now          func() time.Time
}

// New builds a server routing requests into o.
func New(o *stream.Orchestrator, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}

	s := &Server{
		orchestrator: o,
		limiter:      NewLimiter(int64(opts.MaxConcurrent)),
		engine:       gin.New(),
		logger:       slog.Default().With("component", "server"),
		now:          time.Now,
	}

	s.engine.Use(recovery(), requestID(), cors(opts.AllowOrigin))
	s.engine.GET("/health", s.health)
	s.engine.POST("/chat", s.chat)
	s.engine.GET("/chat/stream", s.chatStream)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Limiter returns the server's pipeline limiter.
func (s *Server) Limiter() *Limiter { return s.limiter }

// Run listens on addr until ctx is cancelled, then shuts down gracefully
// and waits for running pipelines to finish.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}
	if !s.limiter.WaitIdle(shutdownTimeout) {
		s.logger.Warn("pipelines still running after shutdown", "active", s.limiter.Active())
	}
	return nil
}
