package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/shared"
)

// CommandFunc handles one invocation of a named command.
//
// args is the raw JSON argument object and may be empty. The returned value is serialized to JSON for
// the caller; the error message is shown to the caller as-is.
type CommandFunc func(ctx context.Context, app *App, args json.RawMessage) (any, error)

// Plugin installs commands and state on an [App].
type Plugin interface {
	Name() string
	Setup(app *App) error
}

// App is the application handle passed to every command.
type App struct {
	logger *log.Logger

	mu       sync.RWMutex
	state    map[reflect.Type]any
	windows  map[string]*Window
	commands map[string]CommandFunc
	plugins  []Plugin

	exitOnce sync.Once
	exiting  chan struct{}
	exitCode int
}

// New creates an empty [App]. A nil logger falls back to [shared.NewLogger].
func New(logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &App{
		logger:   logger,
		state:    make(map[reflect.Type]any),
		windows:  make(map[string]*Window),
		commands: make(map[string]CommandFunc),
		exiting:  make(chan struct{}),
	}
}

// Logger returns the application logger.
func (a *App) Logger() *log.Logger { return a.logger }

// Manage stores v as managed state keyed by its dynamic type.
//
// Returns false without replacing anything when a value of that type is already managed.
func (a *App) Manage(v any) bool {
	t := reflect.TypeOf(v)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.state[t]; ok {
		return false
	}
	a.state[t] = v
	return true
}

// State returns the managed value of type T.
func State[T any](a *App) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.state[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// AddWindow creates a window with the given label.
func (a *App) AddWindow(label string) (*Window, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.windows[label]; ok {
		return nil, fmt.Errorf("%w: window %q already exists", shared.ErrInvalidArgument, label)
	}
	w := newWindow(label)
	a.windows[label] = w
	return w, nil
}

// Window looks up a window by label.
func (a *App) Window(label string) (*Window, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	w, ok := a.windows[label]
	return w, ok
}

// MainWindow returns the window labelled [MainWindowLabel].
func (a *App) MainWindow() (*Window, bool) {
	return a.Window(MainWindowLabel)
}

// CloseWindow closes and forgets a window. Handles held elsewhere fail to emit afterwards.
func (a *App) CloseWindow(label string) error {
	a.mu.Lock()
	w, ok := a.windows[label]
	delete(a.windows, label)
	a.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownWindow, label)
	}
	w.close()
	return nil
}

// Register adds a command under name.
func (a *App) Register(name string, fn CommandFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.commands[name]; ok {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateCommand, name)
	}
	a.commands[name] = fn
	return nil
}

// Commands returns the registered command names in sorted order.
func (a *App) Commands() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke runs the command registered under name.
func (a *App) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	a.mu.RLock()
	fn, ok := a.commands[name]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownCommand, name)
	}

	a.logger.Debug("invoke", "command", name)
	result, err := fn(ctx, a, args)
	if err != nil {
		a.logger.Debug("command failed", "command", name, "error", err)
		return nil, err
	}
	return result, nil
}

// Plugin runs p.Setup and remembers p for [App.Close].
func (a *App) Plugin(p Plugin) error {
	if err := p.Setup(a); err != nil {
		return fmt.Errorf("failed to set up plugin %s: %w", p.Name(), err)
	}

	a.mu.Lock()
	a.plugins = append(a.plugins, p)
	a.mu.Unlock()

	a.logger.Debug("plugin installed", "plugin", p.Name())
	return nil
}

// Exit requests application shutdown with code. Only the first call's code is kept.
func (a *App) Exit(code int) {
	a.exitOnce.Do(func() {
		a.mu.Lock()
		a.exitCode = code
		a.mu.Unlock()
		close(a.exiting)
	})
}

// Exiting is closed once [App.Exit] has been called.
func (a *App) Exiting() <-chan struct{} { return a.exiting }

// ExitCode returns the code passed to the first [App.Exit] call.
func (a *App) ExitCode() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.exitCode
}

// Close closes plugins that implement [io.Closer] in reverse install order.
func (a *App) Close() error {
	a.mu.Lock()
	plugins := a.plugins
	a.plugins = nil
	a.mu.Unlock()

	var errs []error
	for _, p := range slices.Backward(plugins) {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// DecodeArgs unmarshals a command argument object into T. Empty input yields the zero value.
func DecodeArgs[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 || string(args) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return v, nil
}
