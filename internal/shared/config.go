package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the host configuration loaded from a TOML file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Bridge   BridgeConfig   `toml:"bridge"`
	Auth     AuthConfig     `toml:"auth"`
	HTTP     HTTPConfig     `toml:"http"`
	Log      LogConfig      `toml:"log"`
}

// AppConfig identifies the desktop application.
type AppConfig struct {
	Identifier string `toml:"identifier"`
	Name       string `toml:"name"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// BridgeConfig contains settings for the loopback IPC bridge the frontend talks to.
type BridgeConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	RateLimit       float64       `toml:"rate_limit"`
	Burst           int           `toml:"burst"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Addr returns the bridge listen address in host:port form.
func (b BridgeConfig) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// AuthConfig contains settings for the OAuth callback server.
type AuthConfig struct {
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// HTTPConfig contains settings for the http_request proxy command.
type HTTPConfig struct {
	Timeout  time.Duration `toml:"timeout"`
	RetryMax int           `toml:"retry_max"`
}

// LogConfig contains logger settings.
//
// An empty File logs to stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Bridge.Port < 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("%w: bridge port %d out of range", ErrInvalidConfig, c.Bridge.Port)
	}
	if c.Bridge.RateLimit < 0 || c.Bridge.Burst < 0 {
		return fmt.Errorf("%w: bridge rate limit must not be negative", ErrInvalidConfig)
	}
	if c.HTTP.RetryMax < 0 {
		return fmt.Errorf("%w: http retry_max must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads the config at path when it exists and falls back to defaults otherwise.
func ResolveConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
