package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// ErrInvalidValue is returned for out-of-range or unparsable settings.
var ErrInvalidValue = errors.New("invalid config value")

// Environment variables recognised by ApplyEnv.
const (
	EnvPort          = "BRIDGE_PORT"
	EnvBindAddress   = "BRIDGE_BIND_ADDRESS"
	EnvAcceptTimeout = "BRIDGE_ACCEPT_TIMEOUT"
	EnvIOTimeout     = "BRIDGE_IO_TIMEOUT"
	EnvMaxFrameSize  = "BRIDGE_MAX_FRAME_SIZE"
	EnvReaccept      = "BRIDGE_REACCEPT"
	EnvLogLevel      = "BRIDGE_LOG_LEVEL"
	EnvLogFormat     = "BRIDGE_LOG_FORMAT"
	EnvMetricsAddr   = "BRIDGE_METRICS_ADDR"
	EnvDriverAddr    = "BRIDGE_DRIVER_ADDR"
)

var envKeys = []string{
	EnvPort, EnvBindAddress, EnvAcceptTimeout, EnvIOTimeout, EnvMaxFrameSize,
	EnvReaccept, EnvLogLevel, EnvLogFormat, EnvMetricsAddr, EnvDriverAddr,
}

// ApplyEnv overrides cfg from envFile (optional, missing is fine) and then
// from the process environment, which wins over the file. The process
// environment itself is left untouched.
func ApplyEnv(cfg *Config, envFile string) error {
	vars := make(map[string]string)

	if envFile != "" {
		file, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return errors.Wrapf(err, "read env file %s", envFile)
		}
		for k, v := range file {
			vars[k] = v
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	return apply(cfg, vars)
}

func apply(cfg *Config, vars map[string]string) error {
	var err error

	if v, ok := vars[EnvPort]; ok {
		var port uint64
		if port, err = strconv.ParseUint(v, 10, 16); err != nil {
			return errors.Wrapf(ErrInvalidValue, "%s=%q", EnvPort, v)
		}
		cfg.Listen.Port = uint16(port)
	}
	if v, ok := vars[EnvBindAddress]; ok {
		cfg.Listen.BindAddress = v
	}
	if v, ok := vars[EnvAcceptTimeout]; ok {
		if cfg.Listen.AcceptTimeout, err = parseDuration(EnvAcceptTimeout, v); err != nil {
			return err
		}
	}
	if v, ok := vars[EnvIOTimeout]; ok {
		if cfg.Listen.IOTimeout, err = parseDuration(EnvIOTimeout, v); err != nil {
			return err
		}
	}
	if v, ok := vars[EnvMaxFrameSize]; ok {
		if cfg.Listen.MaxFrameSize, err = strconv.Atoi(v); err != nil {
			return errors.Wrapf(ErrInvalidValue, "%s=%q", EnvMaxFrameSize, v)
		}
	}
	if v, ok := vars[EnvReaccept]; ok {
		if cfg.Session.Reaccept, err = strconv.ParseBool(v); err != nil {
			return errors.Wrapf(ErrInvalidValue, "%s=%q", EnvReaccept, v)
		}
	}
	if v, ok := vars[EnvLogLevel]; ok {
		cfg.Log.Level = v
	}
	if v, ok := vars[EnvLogFormat]; ok {
		cfg.Log.Format = v
	}
	if v, ok := vars[EnvMetricsAddr]; ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := vars[EnvDriverAddr]; ok {
		cfg.Driver.Addr = v
	}

	return nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidValue, "%s=%q", key, v)
	}
	return d, nil
}
