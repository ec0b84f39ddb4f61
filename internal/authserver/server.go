package authserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/server"
)

// callbackServer serves one loopback listener until its shutdown receiver fires.
type callbackServer struct {
	ln              net.Listener
	srv             *http.Server
	logger          *log.Logger
	shutdownTimeout time.Duration
}

func newCallbackServer(ln net.Listener, handler server.Handler, logger *log.Logger, shutdownTimeout time.Duration) *callbackServer {
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	router.Handler(handler)

	return &callbackServer{
		ln: ln,
		srv: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
		},
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// run accepts connections until rx fires, then drains in-flight requests and returns.
//
// rx is closed on return, so a later send on its sender fails.
func (s *callbackServer) run(rx *ShutdownReceiver) {
	defer rx.Close()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.srv.Serve(s.ln)
	}()

	select {
	case <-rx.Done():
		s.shutdown()
		<-serveErr
		s.logger.Info("auth server stopped")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("auth server failed", "error", err)
		}
	}
}

func (s *callbackServer) shutdown() {
	ctx := context.Background()
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown incomplete, closing connections", "error", err)
		s.srv.Close()
	}
}
