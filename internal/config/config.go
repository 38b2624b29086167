// Package config loads the fpgabridge settings: defaults, then a YAML file,
// then a .env file and the process environment.
package config

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	bridge "github.com/Zereker/fpgabridge"
	"github.com/Zereker/fpgabridge/internal/logging"
)

// Config is the complete binary configuration.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Driver  DriverConfig  `yaml:"driver"`
}

// ListenConfig configures the bridge endpoint.
type ListenConfig struct {
	Port          uint16        `yaml:"port"`
	BindAddress   string        `yaml:"bind_address"`
	AcceptTimeout time.Duration `yaml:"accept_timeout"` // 0 waits forever
	IOTimeout     time.Duration `yaml:"io_timeout"`     // 0 waits forever
	MaxFrameSize  int           `yaml:"max_frame_size"`
}

// SessionConfig controls what the serve loop does between drivers.
type SessionConfig struct {
	Reaccept bool `yaml:"reaccept"` // accept the next driver after a disconnect
}

// LogConfig selects level and encoding of the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DriverConfig configures the test driver.
type DriverConfig struct {
	Addr      string        `yaml:"addr"`
	Scenarios []string      `yaml:"scenarios"` // JSON files; built-in snapshots when empty
	Rounds    int           `yaml:"rounds"`
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Port:         9000,
			BindAddress:  "0.0.0.0",
			MaxFrameSize: 1024,
		},
		Session: SessionConfig{
			Reaccept: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Driver: DriverConfig{
			Addr:    "127.0.0.1:9000",
			Rounds:  1,
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config file")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	ip := net.ParseIP(c.Listen.BindAddress)
	if ip == nil || ip.To4() == nil {
		return errors.Wrapf(ErrInvalidValue, "listen.bind_address %q is not an IPv4 address", c.Listen.BindAddress)
	}
	if c.Listen.AcceptTimeout < 0 || c.Listen.IOTimeout < 0 {
		return errors.Wrap(ErrInvalidValue, "listen timeouts must not be negative")
	}
	if c.Listen.MaxFrameSize < 0 {
		return errors.Wrap(ErrInvalidValue, "listen.max_frame_size must not be negative")
	}

	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return errors.Wrapf(ErrInvalidValue, "log.format %q", c.Log.Format)
	}

	if c.Driver.Rounds < 1 {
		return errors.Wrap(ErrInvalidValue, "driver.rounds must be at least 1")
	}
	if c.Driver.Interval < 0 || c.Driver.Timeout < 0 {
		return errors.Wrap(ErrInvalidValue, "driver durations must not be negative")
	}

	return nil
}

// BridgeOptions maps the listen section onto lifecycle options.
func (c *Config) BridgeOptions() []bridge.Option {
	return []bridge.Option{
		bridge.BindAddressOption(net.ParseIP(c.Listen.BindAddress)),
		bridge.AcceptTimeoutOption(c.Listen.AcceptTimeout),
		bridge.IOTimeoutOption(c.Listen.IOTimeout),
		bridge.MaxFrameSizeOption(c.Listen.MaxFrameSize),
	}
}
