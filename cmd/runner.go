package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/authserver"
	"github.com/desertthunder/deskhost/internal/bridge"
	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/httpclient"
	"github.com/desertthunder/deskhost/internal/plugins"
	"github.com/desertthunder/deskhost/internal/repositories"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	bridge     *bridge.Client
	openURL    func(string) error
	palette    *Palette

	// set when the caller supplied them, so loadConfig leaves them alone
	fixedConfig bool
	fixedLogger bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Bridge     *bridge.Client
	// OpenURL replaces the system browser, mostly for tests.
	OpenURL func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		bridge:      opts.Bridge,
		openURL:     opts.OpenURL,
		palette:     DefaultPalette(),
		fixedConfig: opts.Config != nil,
		fixedLogger: opts.Logger != nil,
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	if r.openURL == nil {
		r.openURL = shared.OpenBrowser
	}

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, invokeCommand, httpCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the --config file and rebuilds the logger from its [log] section.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.fixedConfig {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
	}

	if !r.fixedLogger {
		logger, err := shared.ConfigureLogger(r.config.Log)
		if err != nil {
			return err
		}
		r.logger = logger
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.bridge == nil {
		r.bridge = bridge.NewClient("http://"+r.config.Bridge.Addr(), r.httpClient)
	}

	return nil
}

// newApp builds an app with a main window and the standard plugins.
//
// withDatabase also opens and migrates the configured database and installs the SQL and settings plugins,
// which close it with the app.
func (r *Runner) newApp(withDatabase bool) (*host.App, error) {
	app := host.New(r.logger)
	if _, err := app.AddWindow(host.MainWindowLabel); err != nil {
		return nil, err
	}

	installed := []host.Plugin{
		authserver.NewController(authserver.ControllerOpts{
			Logger:          r.logger,
			ShutdownTimeout: r.config.Auth.ShutdownTimeout,
		}),
		httpclient.NewPlugin(httpclient.NewClient(httpclient.ClientOpts{
			Logger:   r.logger,
			Timeout:  r.config.HTTP.Timeout,
			RetryMax: r.config.HTTP.RetryMax,
		})),
		plugins.NewOpener(r.openURL),
		plugins.NewOSInfo(),
		plugins.Process{},
	}

	if withDatabase {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		installed = append(installed,
			plugins.NewSQL(db),
			plugins.NewSettings(repositories.NewSettingsRepository(db)),
		)
	}

	for _, p := range installed {
		if err := app.Plugin(p); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
