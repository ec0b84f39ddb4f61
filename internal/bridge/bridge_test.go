package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
	tu "github.com/desertthunder/deskhost/internal/testing"
	"go.uber.org/goleak"
)

func testConfig() shared.BridgeConfig {
	return shared.BridgeConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}
}

func newTestBridge(t *testing.T, cfg shared.BridgeConfig) (*host.App, *host.Window, *httptest.Server) {
	t.Helper()

	app, window := tu.NewTestApp(t)
	app.Register("echo", func(ctx context.Context, app *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[struct {
			Text string `json:"text"`
		}](args)
		if err != nil {
			return nil, err
		}
		return in.Text, nil
	})
	app.Register("fail", func(ctx context.Context, app *host.App, args json.RawMessage) (any, error) {
		return nil, shared.ErrNoServerRunning
	})
	app.Register("nothing", func(ctx context.Context, app *host.App, args json.RawMessage) (any, error) {
		return nil, nil
	})

	ts := httptest.NewServer(New(app, cfg, shared.NewLogger(io.Discard)).Handler())
	t.Cleanup(ts.Close)
	return app, window, ts
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(data))
}

func TestInvokeHandler(t *testing.T) {
	_, _, ts := newTestBridge(t, testConfig())

	tc := []struct {
		name       string
		command    string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "success", command: "echo", body: `{"text":"hi"}`, wantStatus: 200, wantBody: `"hi"`},
		{name: "empty body", command: "echo", body: ``, wantStatus: 200, wantBody: `""`},
		{name: "null result", command: "nothing", body: ``, wantStatus: 200, wantBody: `null`},
		{name: "command error", command: "fail", body: ``, wantStatus: 400, wantBody: `{"error":"No auth server is currently running"}`},
		{name: "bad arguments", command: "echo", body: `{"text":1}`, wantStatus: 400},
		{name: "invalid json", command: "echo", body: `{`, wantStatus: 400},
		{name: "unknown command", command: "missing", body: ``, wantStatus: 404, wantBody: `{"error":"command not found: missing"}`},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, ts.URL+"/invoke/"+tt.command, tt.body)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d (%s)", tt.wantStatus, status, body)
			}
			if tt.wantBody != "" && body != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, body)
			}
		})
	}

	t.Run("GET is not allowed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/invoke/echo")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, ts := newTestBridge(t, testConfig())

	status, body := post(t, ts.URL+"/invoke/echo", `{"text":"x"}`)
	if status != http.StatusOK {
		t.Fatalf("expected invoke to succeed, got %d %s", status, body)
	}

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(data)) != `{"status":"ok"}` {
		t.Errorf("unexpected health body %s", data)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	data, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), `deskhost_bridge_invocations_total{command="echo",outcome="ok"}`) {
		t.Error("expected invocation counter in exposition")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	_, _, ts := newTestBridge(t, cfg)

	if status, _ := post(t, ts.URL+"/invoke/nothing", ""); status != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", status)
	}
	if status, _ := post(t, ts.URL+"/invoke/nothing", ""); status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", status)
	}
}

func waitForListeners(t *testing.T, w *host.Window, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for w.Listeners() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d listeners", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEvents(t *testing.T) {
	t.Run("Stream", func(t *testing.T) {
		_, window, ts := newTestBridge(t, testConfig())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?window=main", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /events failed: %v", err)
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
			t.Fatalf("expected text/event-stream, got %q", ct)
		}

		waitForListeners(t, window, 1)
		if err := window.Emit("auth-callback", map[string]string{"code": "abc"}); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}

		reader := bufio.NewReader(resp.Body)
		var lines []string
		for len(lines) < 3 {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("failed to read event: %v", err)
			}
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}

		if !strings.HasPrefix(lines[0], "id: ") || len(lines[0]) <= len("id: ") {
			t.Errorf("expected id line, got %q", lines[0])
		}
		if lines[1] != "event: auth-callback" {
			t.Errorf("expected event line, got %q", lines[1])
		}
		if lines[2] != `data: {"code":"abc"}` {
			t.Errorf("expected data line, got %q", lines[2])
		}

		cancel()
		deadline := time.Now().Add(2 * time.Second)
		for window.Listeners() != 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if window.Listeners() != 0 {
			t.Error("expected listener to be removed after disconnect")
		}
	})

	t.Run("Unknown Window", func(t *testing.T) {
		_, _, ts := newTestBridge(t, testConfig())

		resp, err := http.Get(ts.URL + "/events?window=settings")
		if err != nil {
			t.Fatalf("GET /events failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	app, window := tu.NewTestApp(t)
	srv := New(app, testConfig(), shared.NewLogger(io.Discard))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	baseURL := "http://" + ln.Addr().String()

	resp, err := client.Get(baseURL + "/events")
	if err != nil {
		t.Fatalf("GET /events failed: %v", err)
	}
	waitForListeners(t, window, 1)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return with an open event stream")
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	client.CloseIdleConnections()
}

func TestClient(t *testing.T) {
	_, _, ts := newTestBridge(t, testConfig())
	client := NewClient(ts.URL, nil)

	t.Run("Defaults", func(t *testing.T) {
		c := NewClient("", nil)
		if c.baseURL != "http://127.0.0.1:1430" {
			t.Errorf("expected default base URL, got %s", c.baseURL)
		}
		if c.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("Invoke", func(t *testing.T) {
		result, err := client.Invoke(context.Background(), "echo", map[string]string{"text": "hello"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.TrimSpace(string(result)) != `"hello"` {
			t.Errorf("unexpected result %s", result)
		}
	})

	t.Run("Command Error", func(t *testing.T) {
		_, err := client.Invoke(context.Background(), "fail", nil)
		if err == nil || err.Error() != "No auth server is currently running" {
			t.Errorf("expected the command's message, got %v", err)
		}
	})

	t.Run("Unknown Command", func(t *testing.T) {
		_, err := client.Invoke(context.Background(), "missing", nil)
		if !errors.Is(err, shared.ErrUnknownCommand) {
			t.Errorf("expected ErrUnknownCommand, got %v", err)
		}
	})

	t.Run("Unencodable Arguments", func(t *testing.T) {
		_, err := client.Invoke(context.Background(), "echo", make(chan int))
		if err == nil || !strings.Contains(err.Error(), "failed to encode arguments") {
			t.Errorf("expected encode error, got %v", err)
		}
	})

	t.Run("Health", func(t *testing.T) {
		if err := client.Health(context.Background()); err != nil {
			t.Errorf("expected healthy bridge, got %v", err)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		ln, _ := net.Listen("tcp", "127.0.0.1:0")
		addr := ln.Addr().String()
		ln.Close()

		c := NewClient("http://"+addr, nil)
		if _, err := c.Invoke(context.Background(), "echo", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if err := c.Health(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
