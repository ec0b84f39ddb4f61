package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/deskhost/internal/shared"
	tu "github.com/desertthunder/deskhost/internal/testing"
)

func newTestClient(opts ClientOpts) *Client {
	opts.Logger = shared.NewLogger(io.Discard)
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	return NewClient(opts)
}

func strptr(s string) *string { return &s }

func TestShouldHaveBody(t *testing.T) {
	tc := []struct {
		method string
		status int
		want   bool
	}{
		{method: "GET", status: 200, want: true},
		{method: "head", status: 200, want: false},
		{method: "POST", status: 204, want: false},
		{method: "GET", status: 304, want: false},
		{method: "GET", status: 101, want: false},
		{method: "GET", status: 404, want: true},
		{method: "DELETE", status: 500, want: true},
	}

	for _, tt := range tc {
		if got := ShouldHaveBody(tt.method, tt.status); got != tt.want {
			t.Errorf("ShouldHaveBody(%s, %d) = %v, want %v", tt.method, tt.status, got, tt.want)
		}
	}
}

func TestClient(t *testing.T) {
	t.Run("Methods", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			io.WriteString(w, r.Method+":"+string(body))
		}))
		defer server.Close()

		client := newTestClient(ClientOpts{})

		for _, method := range []string{"get", "POST", "Put", "DELETE", "patch"} {
			t.Run(method, func(t *testing.T) {
				req := HTTPRequest{URL: server.URL, Method: method}
				if method != "get" {
					req.Body = strptr("payload")
				}

				resp, err := client.Do(context.Background(), req)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				upper := strings.ToUpper(method)
				if resp.Headers["x-method"] != upper {
					t.Errorf("expected server to see %s, got %q", upper, resp.Headers["x-method"])
				}
				if !strings.HasPrefix(resp.Body, upper+":") {
					t.Errorf("unexpected body %q", resp.Body)
				}
			})
		}
	})

	t.Run("Request Headers And Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token" {
				t.Errorf("expected Authorization header, got %q", r.Header.Get("Authorization"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"hours":8}` {
				t.Errorf("expected JSON body, got %s", body)
			}
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"ok":true}`)
		}))
		defer server.Close()

		resp, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{
			URL:     server.URL,
			Method:  http.MethodPost,
			Headers: map[string]string{"Authorization": "Bearer token", "Content-Type": "application/json"},
			Body:    strptr(`{"hours":8}`),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != http.StatusCreated {
			t.Errorf("expected status 201, got %d", resp.Status)
		}
		if resp.Body != `{"ok":true}` {
			t.Errorf("unexpected body %q", resp.Body)
		}
	})

	t.Run("Error Status Is Not An Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer server.Close()

		resp, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{URL: server.URL, Method: "GET"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != http.StatusNotFound || resp.Body != "nope\n" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("No Content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		resp, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{URL: server.URL, Method: "DELETE"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != http.StatusNoContent || resp.Body != "" {
			t.Errorf("expected empty 204, got %+v", resp)
		}
	})

	t.Run("Repeated Headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Set-Cookie", "a=1")
			w.Header().Add("Set-Cookie", "b=2")
		}))
		defer server.Close()

		resp, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{URL: server.URL, Method: "GET"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := resp.Headers["set-cookie"]; got != "a=1, b=2" {
			t.Errorf("expected joined header values, got %q", got)
		}
	})

	t.Run("Unsupported Method", func(t *testing.T) {
		client := newTestClient(ClientOpts{})
		_, err := client.Do(context.Background(), HTTPRequest{URL: "http://example.com", Method: "options"})

		if !errors.Is(err, shared.ErrUnsupportedMethod) {
			t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
		}
		if err.Error() != "Unsupported HTTP method: OPTIONS" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Failed Request Creation", func(t *testing.T) {
		_, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{URL: "http://example.com/\x00", Method: "GET"})

		if !errors.Is(err, shared.ErrRequestFailed) {
			t.Fatalf("expected ErrRequestFailed, got %v", err)
		}
	})

	t.Run("Failed HTTP Request", func(t *testing.T) {
		transport := tu.NewMockRoundTripper(nil, errors.New("connection failed"))
		client := newTestClient(ClientOpts{Transport: transport})

		_, err := client.Do(context.Background(), HTTPRequest{URL: "http://example.com", Method: "GET"})
		if !errors.Is(err, shared.ErrRequestFailed) {
			t.Fatalf("expected ErrRequestFailed, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "Request failed: ") || !strings.Contains(err.Error(), "connection failed") {
			t.Errorf("unexpected message %q", err.Error())
		}
		if transport.Calls() != 1 {
			t.Errorf("expected a single attempt with retries off, got %d", transport.Calls())
		}
	})

	t.Run("Failed Response Body Read", func(t *testing.T) {
		client := newTestClient(ClientOpts{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil),
		})

		_, err := client.Do(context.Background(), HTTPRequest{URL: "http://example.com", Method: "GET"})
		if !errors.Is(err, shared.ErrReadBody) {
			t.Fatalf("expected ErrReadBody, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "Failed to read response body: ") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Retries", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			io.WriteString(w, "ok")
		}))
		defer server.Close()

		client := newTestClient(ClientOpts{RetryMax: 2, RetryWaitMin: time.Millisecond, RetryWaitMax: 5 * time.Millisecond})
		resp, err := client.Do(context.Background(), HTTPRequest{URL: server.URL, Method: "GET"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != http.StatusOK || resp.Body != "ok" {
			t.Errorf("expected eventual success, got %+v", resp)
		}
		if attempts.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts.Load())
		}
	})

	t.Run("Retries Exhausted Returns Last Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer server.Close()

		resp, err := newTestClient(ClientOpts{}).Do(context.Background(), HTTPRequest{URL: server.URL, Method: "GET"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != http.StatusBadGateway {
			t.Errorf("expected 502 passthrough, got %d", resp.Status)
		}
	})
}

func TestPlugin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	app, _ := tu.NewTestApp(t)
	if err := app.Plugin(NewPlugin(newTestClient(ClientOpts{}))); err != nil {
		t.Fatalf("failed to install plugin: %v", err)
	}

	t.Run("Invoke", func(t *testing.T) {
		args, _ := json.Marshal(map[string]any{
			"request": map[string]any{"url": server.URL, "method": "GET", "headers": map[string]string{}},
		})

		result, err := app.Invoke(context.Background(), CommandHTTPRequest, args)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, _ := json.Marshal(result)
		var resp struct {
			Status  int               `json:"status"`
			Headers map[string]string `json:"headers"`
			Body    string            `json:"body"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if resp.Status != 200 || resp.Body != `{"status":"ok"}` || resp.Headers["content-type"] != "application/json" {
			t.Errorf("unexpected result %s", data)
		}
	})

	t.Run("Missing Request", func(t *testing.T) {
		_, err := app.Invoke(context.Background(), CommandHTTPRequest, json.RawMessage(`{}`))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
