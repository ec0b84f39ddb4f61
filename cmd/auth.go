package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/deskhost/internal/authserver"
	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// LoginResult is printed by `auth login`. The caller exchanges the code; State is returned so it can be
// compared with what the provider echoes.
type LoginResult struct {
	Code        string        `json:"code"`
	State       string        `json:"state"`
	Verifier    string        `json:"verifier"`
	RedirectURI string        `json:"redirectUri"`
	Token       *oauth2.Token `json:"token,omitempty"`
}

// AuthLogin starts a callback server, sends the user to the provider and waits for the auth-callback
// event. The server is always stopped before returning.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	exchange := cmd.Bool("exchange")
	if exchange && cmd.String("token-url") == "" {
		return fmt.Errorf("%w: --token-url is required with --exchange", shared.ErrMissingArgument)
	}

	app, err := r.newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	window, _ := app.MainWindow()
	callbacks := make(chan authserver.AuthCallback, 1)
	unlisten := window.Once(authserver.EventAuthCallback, func(e host.Event) {
		var cb authserver.AuthCallback
		if err := json.Unmarshal(e.Payload, &cb); err != nil {
			r.logger.Error("malformed auth-callback payload", "error", err)
			return
		}
		callbacks <- cb
	})
	defer unlisten()

	result, err := app.Invoke(ctx, authserver.CommandStart, nil)
	if err != nil {
		return err
	}
	redirectURI := result.(string)
	defer r.stopAuthServer(app)

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	conf := &oauth2.Config{
		ClientID:     cmd.String("client-id"),
		ClientSecret: cmd.String("client-secret"),
		Endpoint: oauth2.Endpoint{
			AuthURL:  cmd.String("auth-url"),
			TokenURL: cmd.String("token-url"),
		},
		RedirectURL: redirectURI,
		Scopes:      cmd.StringSlice("scope"),
	}
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	r.writePlain("%s\n%s\n\n", r.palette.Title("Sign in"), authURL)
	if cmd.Bool("no-browser") {
		r.writePlain("%s\n", r.palette.Help("Open the URL above in a browser to continue."))
	} else if err := r.openURL(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("%s\n", r.palette.Warn("Could not open a browser; open the URL above manually."))
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	var cb authserver.AuthCallback
	select {
	case cb = <-callbacks:
	case <-waitCtx.Done():
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: no authorization code received", shared.ErrTimeout)
		}
		return waitCtx.Err()
	}

	r.writePlain("%s\n", r.palette.Ok("Authorization code received"))

	out := LoginResult{
		Code:        cb.Code,
		State:       state,
		Verifier:    verifier,
		RedirectURI: redirectURI,
	}

	if exchange {
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
		token, err := conf.Exchange(tokenCtx, cb.Code, oauth2.VerifierOption(verifier))
		if err != nil {
			return fmt.Errorf("failed to exchange code: %w", err)
		}
		out.Token = token
	}

	return r.writeJSON(out, true)
}

func (r *Runner) stopAuthServer(app *host.App) {
	_, err := app.Invoke(context.Background(), authserver.CommandStop, nil)
	if err != nil && !errors.Is(err, shared.ErrNoServerRunning) {
		r.logger.Warn("failed to stop auth server", "error", err)
	}
}
