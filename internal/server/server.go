package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playlytics/playlytics/internal/config"
)

// Server owns the HTTP listener, the live stream hub, and the optional alert
// notifier, with graceful lifecycle management.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	api    *HTTPAPI
	hub    *Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	running      bool
	httpShutdown func(ctx context.Context) error
	notifier     *AlertNotifier
}

// NewServer creates a server instance wired to the given API.
func NewServer(cfg *config.Config, api *HTTPAPI, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx, cfg.Server.AllowedOrigins, logger)
	api.SetHub(hub)

	return &Server{
		cfg:    cfg,
		logger: logger,
		api:    api,
		hub:    hub,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetAlertNotifier attaches an alert notifier whose lifecycle the server manages.
func (s *Server) SetAlertNotifier(notifier *AlertNotifier) {
	s.notifier = notifier
	s.api.SetAlertNotifier(notifier)
}

// Start binds the HTTP listener and starts the hub.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	if s.notifier != nil {
		if err := s.notifier.Start(); err != nil {
			s.logger.Error("alert notifier failed to start", zap.Error(err))
			s.notifier = nil
		} else {
			s.logger.Info("alert notifier started")
		}
	}

	addr := fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("http server starting", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("http server failed to start: %w", err)
	case <-time.After(50 * time.Millisecond):
	}

	s.httpShutdown = httpSrv.Shutdown
	s.logger.Info("server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// Stop gracefully shuts down the listener, hub, and notifier.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.mu.Unlock()

	s.logger.Info("server shutting down gracefully")

	if s.httpShutdown != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.httpShutdown(shutdownCtx); err != nil {
			s.logger.Error("http shutdown error", zap.Error(err))
		}
		shutdownCancel()
	}

	s.cancel()

	if s.notifier != nil {
		if err := s.notifier.Stop(); err != nil {
			s.logger.Error("alert notifier stop error", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server shutdown complete")
	case <-time.After(10 * time.Second):
		s.logger.Warn("server shutdown timeout exceeded")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Hub exposes the live stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}
