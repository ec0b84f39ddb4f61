package plugins

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/deskhost/internal/host"
)

// Process exposes application exit to the frontend.
type Process struct{}

func (Process) Name() string { return "process" }

func (Process) Setup(app *host.App) error {
	return app.Register("exit", func(ctx context.Context, app *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[struct {
			Code int `json:"code"`
		}](args)
		if err != nil {
			return nil, err
		}

		app.Logger().Info("exit requested", "code", in.Code)
		app.Exit(in.Code)
		return nil, nil
	})
}
