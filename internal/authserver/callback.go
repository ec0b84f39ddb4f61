package authserver

import (
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/host"
)

const (
	// CallbackPath is the only route the callback server answers.
	CallbackPath = "/callback"

	// EventAuthCallback is the window event carrying the authorization code.
	EventAuthCallback = "auth-callback"

	// SuccessBody is the page shown when a code was received.
	SuccessBody = "Authentication successful! You can close this window."

	// FailureBody is the page shown when the redirect carries no code.
	FailureBody = "Authentication failed."
)

// AuthCallback is the payload of [EventAuthCallback].
type AuthCallback struct {
	Code string `json:"code"`
}

// CallbackHandler turns a GET /callback redirect into an [EventAuthCallback] emission.
//
// Implements the server.Handler interface for registration with a Router.
type CallbackHandler struct {
	emitter host.Emitter
	logger  *log.Logger
}

// NewCallbackHandler creates a handler emitting on emitter, normally the main window.
func NewCallbackHandler(emitter host.Emitter, logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{emitter: emitter, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP handles the OAuth redirect.
//
// A present code key (even an empty one) is emitted before the success page is written. Anything else
// gets the failure page and no event.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	params, err := parseQuery(r.URL.RawQuery)
	if err != nil {
		callbacksTotal.WithLabelValues(outcomeBadQuery).Inc()
		h.logger.Warn("malformed callback query", "error", err)
		http.Error(w, "Invalid query string", http.StatusBadRequest)
		return
	}

	code, ok := params["code"]
	if !ok {
		callbacksTotal.WithLabelValues(outcomeNoCode).Inc()
		if reason, denied := params["error"]; denied {
			h.logger.Warn("authorization denied by provider", "error", reason, "description", params["error_description"])
		} else {
			h.logger.Warn("callback without code")
		}
		writeHTML(w, http.StatusOK, FailureBody)
		return
	}

	if err := h.emitter.Emit(EventAuthCallback, AuthCallback{Code: code}); err != nil {
		callbacksTotal.WithLabelValues(outcomeEmitError).Inc()
		h.logger.Error("failed to emit auth-callback event", "error", err)
		writeHTML(w, http.StatusInternalServerError, FailureBody)
		return
	}

	callbacksTotal.WithLabelValues(outcomeSuccess).Inc()
	h.logger.Info("authorization code received")
	writeHTML(w, http.StatusOK, SuccessBody)
}

// parseQuery flattens a query string into a map. The last value of a repeated key wins.
func parseQuery(raw string) (map[string]string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(values))
	for k, v := range values {
		params[k] = v[len(v)-1]
	}
	return params, nil
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
