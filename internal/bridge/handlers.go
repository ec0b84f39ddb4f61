package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
)

// maxArgsBytes caps the size of an /invoke request body.
const maxArgsBytes = 1 << 20

// eventBuffer is how many events a slow /events subscriber may fall behind before events are dropped.
const eventBuffer = 64

// ErrorResponse is the body of every failed /invoke.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type invokeHandler struct {
	app *host.App
}

func (h *invokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	command := r.PathValue("command")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArgsBytes))
	if err != nil {
		invocationsTotal.WithLabelValues(command, "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("failed to read arguments: %v", err)})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		invocationsTotal.WithLabelValues(command, "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("%v: arguments are not valid JSON", shared.ErrInvalidInput)})
		return
	}

	result, err := h.app.Invoke(r.Context(), command, body)
	switch {
	case errors.Is(err, shared.ErrUnknownCommand):
		invocationsTotal.WithLabelValues("unknown", "not_found").Inc()
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case err != nil:
		invocationsTotal.WithLabelValues(command, "error").Inc()
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		invocationsTotal.WithLabelValues(command, "ok").Inc()
		writeJSON(w, http.StatusOK, result)
	}
}

// eventsHandler streams window events until the client goes away or the bridge shuts down.
type eventsHandler struct {
	app     *host.App
	logger  *log.Logger
	closing <-chan struct{}
}

func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	label := r.URL.Query().Get("window")
	if label == "" {
		label = host.MainWindowLabel
	}
	window, ok := h.app.Window(label)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("%v: %s", shared.ErrUnknownWindow, label)})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan host.Event, eventBuffer)
	unlisten := window.Listen("", func(e host.Event) {
		select {
		case ch <- e:
		default:
			eventsDroppedTotal.Inc()
			h.logger.Warn("dropping event for slow subscriber", "event", e.Name, "window", label)
		}
	})
	defer unlisten()

	eventSubscribers.Inc()
	defer eventSubscribers.Dec()
	h.logger.Debug("event subscriber connected", "window", label)

	for {
		select {
		case e := <-ch:
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Name, e.Payload); err != nil {
				h.logger.Debug("event subscriber write failed", "error", err)
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			h.logger.Debug("event subscriber disconnected", "window", label)
			return
		case <-h.closing:
			return
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
