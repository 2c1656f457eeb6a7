package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdicthq/verdict/engine/infra/monitoring"
	"github.com/verdicthq/verdict/pkg/config"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	httpReadTimeout           = 15 * time.Second
	httpWriteTimeout          = 60 * time.Second
	httpIdleTimeout           = 60 * time.Second
	defaultShutdownTimeout    = 5 * time.Second
	monitoringShutdownTimeout = 5 * time.Second
)

// Server is the HTTP surface over the question-answering pipeline.
type Server struct {
	cfg        *config.Config
	deps       *Dependencies
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer wires the dependency graph and builds the router. The
// configuration is read from the context manager installed by the CLI.
func NewServer(ctx context.Context) (*Server, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration missing from context; attach a manager with config.ContextWithManager")
	}
	deps, err := BuildDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mon := monitoring.NewServiceWithFallback(ctx, monitoring.FromAppConfig(&cfg.Monitoring))
	mon.SetAsGlobal()
	deps.Monitoring = mon
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.buildRouter(ctx)
	return s, nil
}

// Router exposes the gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Dependencies exposes the wired components.
func (s *Server) Dependencies() *Dependencies {
	return s.deps
}

// Run serves HTTP until the context is canceled or an interrupt
// arrives, then drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-notifyCtx.Done():
		log.Info("Shutdown signal received")
	}
	return s.shutdown(ctx)
}

func (s *Server) shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		log.Warn("HTTP server drain failed", "error", err)
	}
	if s.deps.Monitoring != nil {
		monCtx, monCancel := context.WithTimeout(context.WithoutCancel(ctx), monitoringShutdownTimeout)
		defer monCancel()
		if err := s.deps.Monitoring.Shutdown(monCtx); err != nil {
			log.Warn("Monitoring shutdown failed", "error", err)
		}
	}
	if err := s.deps.Close(drainCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
