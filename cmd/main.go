package main

import (
	"context"
	"os"

	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{})

	app := &cli.Command{
		Name:     "deskhost",
		Usage:    "Desktop host: OAuth loopback callback, command bridge and plugins",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
