package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/deskhost/internal/shared"
)

// MainWindowLabel is the label of the window created at startup.
const MainWindowLabel = "main"

// ErrWindowClosed is returned when emitting on a window that has been closed.
var ErrWindowClosed = errors.New("window closed")

// Event is a single emission on a window's event channel.
type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"event"`
	WindowLabel string          `json:"windowLabel"`
	Payload     json.RawMessage `json:"payload"`
}

// Listener receives events. It runs on the emitting goroutine and must not block.
type Listener func(Event)

// Emitter publishes a named event with a JSON-serializable payload.
type Emitter interface {
	Emit(event string, payload any) error
}

type listener struct {
	id    uint64
	event string
	once  bool
	fn    Listener
}

// Window is a webview window handle.
type Window struct {
	label string

	mu        sync.RWMutex
	visible   bool
	closed    bool
	nextID    uint64
	listeners []listener
}

func newWindow(label string) *Window {
	return &Window{label: label, visible: true}
}

// Label returns the window label.
func (w *Window) Label() string { return w.label }

// Emit marshals payload and delivers it to every listener of event.
func (w *Window) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	evt := Event{
		ID:          shared.GenerateID(),
		Name:        event,
		WindowLabel: w.label,
		Payload:     data,
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWindowClosed, w.label)
	}
	targets := make([]Listener, 0, len(w.listeners))
	kept := w.listeners[:0]
	for _, l := range w.listeners {
		if l.event != "" && l.event != event {
			kept = append(kept, l)
			continue
		}
		targets = append(targets, l.fn)
		if !l.once {
			kept = append(kept, l)
		}
	}
	w.listeners = kept
	w.mu.Unlock()

	for _, fn := range targets {
		fn(evt)
	}
	return nil
}

// Listen registers fn for event and returns a function that removes it.
//
// An empty event name subscribes to every event.
func (w *Window) Listen(event string, fn Listener) (unlisten func()) {
	return w.add(event, fn, false)
}

// Once registers fn for the next emission of event only.
func (w *Window) Once(event string, fn Listener) (unlisten func()) {
	return w.add(event, fn, true)
}

func (w *Window) add(event string, fn Listener, once bool) func() {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.listeners = append(w.listeners, listener{id: id, event: event, once: once, fn: fn})
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, l := range w.listeners {
			if l.id == id {
				w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of registered listeners.
func (w *Window) Listeners() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.listeners)
}

// Show marks the window visible.
func (w *Window) Show() { w.setVisible(true) }

// Hide marks the window hidden. Hidden windows still receive events.
func (w *Window) Hide() { w.setVisible(false) }

func (w *Window) setVisible(v bool) {
	w.mu.Lock()
	w.visible = v
	w.mu.Unlock()
}

// IsVisible reports whether the window is shown.
func (w *Window) IsVisible() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.visible
}

func (w *Window) close() {
	w.mu.Lock()
	w.closed = true
	w.visible = false
	w.listeners = nil
	w.mu.Unlock()
}
