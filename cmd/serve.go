package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/deskhost/internal/bridge"
	"github.com/urfave/cli/v3"
)

// Serve runs the host until SIGINT, SIGTERM or an exit command, then exits with the recorded code.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	app, err := r.newApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-app.Exiting():
			cancel()
		case <-ctx.Done():
		}
	}()

	r.logger.Info("host ready", "commands", len(app.Commands()), "database", r.config.Database.Path)
	r.writePlain("%s\n", r.palette.Ok("Bridge on http://"+r.config.Bridge.Addr()))

	if err := bridge.New(app, r.config.Bridge, r.logger).Run(ctx); err != nil {
		return err
	}

	select {
	case <-app.Exiting():
		if code := app.ExitCode(); code != 0 {
			return cli.Exit("", code)
		}
	default:
	}
	return nil
}
