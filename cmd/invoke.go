package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/deskhost/internal/httpclient"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/urfave/cli/v3"
)

// Invoke calls a command on a running host through the bridge and prints the JSON result.
func (r *Runner) Invoke(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	command := cmd.StringArg("command")
	if command == "" {
		return fmt.Errorf("%w: command", shared.ErrMissingArgument)
	}

	var args any
	if raw := cmd.StringArg("args"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("%w: args is not valid JSON", shared.ErrInvalidInput)
		}
		args = json.RawMessage(raw)
	}

	r.logger.Debug("invoking over bridge", "command", command)
	result, err := r.bridge.Invoke(ctx, command, args)
	if err != nil {
		return err
	}

	if !cmd.Bool("pretty") {
		return r.writePlain("%s\n", bytes.TrimSpace(result))
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	return r.writePlain("%s\n", buf.String())
}

// HTTP sends one request through the http_request command of an in-process app.
func (r *Runner) HTTP(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	target := cmd.StringArg("url")
	if target == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	req := httpclient.HTTPRequest{
		URL:     target,
		Method:  cmd.String("method"),
		Headers: map[string]string{},
	}
	for _, h := range cmd.StringSlice("header") {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("%w: header %q must be Name:Value", shared.ErrInvalidArgument, h)
		}
		req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if cmd.IsSet("data") {
		body := cmd.String("data")
		req.Body = &body
	}

	app, err := r.newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	args, err := json.Marshal(map[string]any{"request": req})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := app.Invoke(ctx, httpclient.CommandHTTPRequest, args)
	if err != nil {
		return err
	}
	return r.writeJSON(resp, true)
}
