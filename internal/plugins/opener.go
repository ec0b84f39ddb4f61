package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
)

// Opener opens URLs with the system handler.
type Opener struct {
	open func(url string) error
}

// NewOpener creates an [Opener]. A nil open func uses [shared.OpenBrowser].
func NewOpener(open func(url string) error) *Opener {
	if open == nil {
		open = shared.OpenBrowser
	}
	return &Opener{open: open}
}

func (o *Opener) Name() string { return "opener" }

func (o *Opener) Setup(app *host.App) error {
	return app.Register("open_url", func(ctx context.Context, app *host.App, args json.RawMessage) (any, error) {
		in, err := host.DecodeArgs[struct {
			URL string `json:"url"`
		}](args)
		if err != nil {
			return nil, err
		}
		if in.URL == "" {
			return nil, fmt.Errorf("%w: url", shared.ErrMissingArgument)
		}
		if _, err := shared.ValidateOpenURL(in.URL); err != nil {
			return nil, err
		}

		app.Logger().Debug("opening url", "url", in.URL)
		return nil, o.open(in.URL)
	})
}
