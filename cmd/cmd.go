// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "debug",
		Usage: "Log at debug level",
	}
}

// serveCommand runs the host with its IPC bridge
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the host and its IPC bridge until interrupted or asked to exit",
		Flags:  []cli.Flag{configFlag(), debugFlag()},
		Action: r.Serve,
	}
}

// authCommand handles OAuth sign-in through the loopback callback server
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "OAuth sign-in through the loopback callback server",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Open the provider's authorization page and wait for the redirect",
				Flags: []cli.Flag{
					configFlag(),
					debugFlag(),
					&cli.StringFlag{
						Name:     "auth-url",
						Usage:    "Provider authorization endpoint",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "token-url",
						Usage: "Provider token endpoint (required with --exchange)",
					},
					&cli.StringFlag{
						Name:     "client-id",
						Usage:    "OAuth client ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "OAuth client secret, for confidential clients",
					},
					&cli.StringSliceFlag{
						Name:    "scope",
						Aliases: []string{"s"},
						Usage:   "Scope to request (repeatable)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the redirect",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
					&cli.BoolFlag{
						Name:  "exchange",
						Usage: "Exchange the code for a token at --token-url",
					},
				},
				Action: r.AuthLogin,
			},
		},
	}
}

// invokeCommand calls a command on a running host
func invokeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "invoke",
		Usage: "Invoke a command on a running host through its bridge",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "command",
			},
			&cli.StringArg{
				Name: "args",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			debugFlag(),
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Invoke,
	}
}

// httpCommand sends one request through the http_request proxy
func httpCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "http",
		Usage: "Send a request through the http_request proxy",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			debugFlag(),
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method",
				Value:   "GET",
			},
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "Request header as Name:Value (repeatable)",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Request body",
			},
		},
		Action: r.HTTP,
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag(), debugFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
