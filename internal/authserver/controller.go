package authserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
)

const (
	// CommandStart is the command name that starts a callback server.
	CommandStart = "start_auth_server"

	// CommandStop is the command name that stops the running callback server.
	CommandStop = "stop_auth_server"

	// StopMessage is returned by a successful stop.
	StopMessage = "Auth server stopped successfully"
)

// Controller starts and stops callback servers. It is installed on an app as a [host.Plugin].
type Controller struct {
	logger          *log.Logger
	shutdownTimeout time.Duration
	state           *AuthState

	mu     sync.Mutex
	closed bool
	tasks  sync.WaitGroup
}

// ControllerOpts configures a [Controller].
type ControllerOpts struct {
	Logger *log.Logger
	// ShutdownTimeout bounds how long in-flight callback requests may take once a server is told to stop.
	// Zero waits for them indefinitely.
	ShutdownTimeout time.Duration
}

// NewController creates a controller with an empty [AuthState].
func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Controller{
		logger:          opts.Logger.With("component", "authserver"),
		shutdownTimeout: opts.ShutdownTimeout,
		state:           &AuthState{},
	}
}

// Name implements [host.Plugin].
func (c *Controller) Name() string { return "authserver" }

// Setup manages the controller's [AuthState] on app and registers the start and stop commands.
func (c *Controller) Setup(app *host.App) error {
	if !app.Manage(c.state) {
		return fmt.Errorf("%w: auth state already managed", shared.ErrInvalidArgument)
	}

	if err := app.Register(CommandStart, func(ctx context.Context, app *host.App, _ json.RawMessage) (any, error) {
		return c.Start(ctx, app)
	}); err != nil {
		return err
	}

	return app.Register(CommandStop, func(ctx context.Context, app *host.App, _ json.RawMessage) (any, error) {
		return c.Stop(ctx, app)
	})
}

// Start launches a callback server on a fresh loopback port and returns its callback URL.
//
// A server that is already running is replaced: its handle is dropped and it shuts down.
func (c *Controller) Start(ctx context.Context, app *host.App) (string, error) {
	window, ok := app.MainWindow()
	if !ok {
		return "", shared.ErrNoMainWindow
	}

	state, ok := host.State[*AuthState](app)
	if !ok {
		return "", fmt.Errorf("%w: auth state not managed", shared.ErrServiceUnavailable)
	}

	port, err := FindAvailablePort()
	if err != nil {
		return "", err
	}

	ln, err := listenLoopback(port)
	if err != nil {
		return "", err
	}

	id := shared.GenerateID()
	logger := c.logger.With("server", id[:8], "port", port)
	srv := newCallbackServer(ln, NewCallbackHandler(window, logger), logger, c.shutdownTimeout)
	tx, rx := NewShutdown()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ln.Close()
		return "", fmt.Errorf("%w: auth server controller closed", shared.ErrServiceUnavailable)
	}
	c.tasks.Add(1)
	old := state.Replace(tx)
	c.mu.Unlock()

	if old != nil {
		logger.Info("replacing running auth server")
		old.Drop()
	}

	serversStartedTotal.Inc()
	serversActive.Inc()
	go func() {
		defer c.tasks.Done()
		defer serversActive.Dec()
		srv.run(rx)
	}()

	callbackURL := CallbackURL(port)
	logger.Info("auth server started", "url", callbackURL)
	return callbackURL, nil
}

// Stop signals the running server to shut down.
func (c *Controller) Stop(ctx context.Context, app *host.App) (string, error) {
	state, ok := host.State[*AuthState](app)
	if !ok {
		return "", fmt.Errorf("%w: auth state not managed", shared.ErrServiceUnavailable)
	}

	tx := state.Take()
	if tx == nil {
		return "", shared.ErrNoServerRunning
	}

	if err := tx.Send(); err != nil {
		c.logger.Warn("auth server already gone", "error", err)
		return "", err
	}

	return StopMessage, nil
}

// Close drops any running server's handle and waits for every server task to return.
//
// Start fails after Close.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	tx := c.state.Take()
	c.mu.Unlock()

	if tx != nil {
		tx.Drop()
	}

	c.tasks.Wait()
	return nil
}
