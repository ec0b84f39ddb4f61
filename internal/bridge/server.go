package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/server"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the bridge routes for one app.
type Server struct {
	cfg    shared.BridgeConfig
	logger *log.Logger
	srv    *http.Server

	closeOnce sync.Once
	closing   chan struct{}
}

// New builds the bridge for app. Nothing listens until [Server.Run] or [Server.Serve].
func New(app *host.App, cfg shared.BridgeConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = app.Logger()
	}
	logger = logger.With("component", "bridge")

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		closing: make(chan struct{}),
	}

	router := server.NewBasicRouter()
	router.Use(
		server.Recoverer(logger),
		server.RequestLogger(logger),
		server.RateLimit(cfg.RateLimit, cfg.Burst),
	)
	router.Handle(http.MethodPost, "/invoke/{command}", &invokeHandler{app: app})
	router.Handle(http.MethodGet, "/events", &eventsHandler{app: app, logger: logger, closing: s.closing})
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(healthHandler))

	s.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}
	// Shutdown waits for handlers to return; open event streams end here.
	s.srv.RegisterOnShutdown(s.signalClosing)

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) signalClosing() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends, then shuts down within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	s.logger.Info("bridge listening", "addr", ln.Addr().String())
	go func() {
		serveErr <- s.srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx := context.Background()
		if s.cfg.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
			defer cancel()
		}

		err := s.srv.Shutdown(shutdownCtx)
		<-serveErr
		if err != nil {
			s.srv.Close()
			return fmt.Errorf("shutdown bridge: %w", err)
		}
		s.logger.Info("bridge stopped")
		return nil
	case err := <-serveErr:
		s.signalClosing()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve bridge: %w", err)
	}
}
