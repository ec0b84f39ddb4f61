package httpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CommandHTTPRequest is the command name of the proxy.
const CommandHTTPRequest = "http_request"

var proxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "deskhost_http_proxy_requests_total",
	Help: "Total number of http_request calls by method and response status.",
}, []string{"method", "status"})

type requestArgs struct {
	Request *HTTPRequest `json:"request"`
}

// Plugin registers [CommandHTTPRequest] on an app.
type Plugin struct {
	client *Client
}

// NewPlugin wraps client as a [host.Plugin].
func NewPlugin(client *Client) *Plugin {
	return &Plugin{client: client}
}

func (p *Plugin) Name() string { return "http" }

func (p *Plugin) Setup(app *host.App) error {
	return app.Register(CommandHTTPRequest, func(ctx context.Context, _ *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[requestArgs](args)
		if err != nil {
			return nil, err
		}
		if in.Request == nil {
			return nil, fmt.Errorf("%w: request", shared.ErrMissingArgument)
		}
		return p.client.Do(ctx, *in.Request)
	})
}
