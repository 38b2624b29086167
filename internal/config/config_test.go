package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/Zereker/fpgabridge"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint16(9000), cfg.Listen.Port)
	assert.Equal(t, "0.0.0.0", cfg.Listen.BindAddress)
	assert.Equal(t, 1024, cfg.Listen.MaxFrameSize)
	assert.True(t, cfg.Session.Reaccept)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "bridge.yml", `
listen:
  port: 9100
  bind_address: 127.0.0.1
  accept_timeout: 30s
  io_timeout: 250ms
session:
  reaccept: false
log:
  level: debug
  format: json
metrics:
  addr: ":9102"
driver:
  scenarios: [spy.json, qqq.json]
  rounds: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(9100), cfg.Listen.Port)
	assert.Equal(t, "127.0.0.1", cfg.Listen.BindAddress)
	assert.Equal(t, 30*time.Second, cfg.Listen.AcceptTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Listen.IOTimeout)
	assert.Equal(t, 1024, cfg.Listen.MaxFrameSize, "unset keys keep their default")
	assert.False(t, cfg.Session.Reaccept)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.Equal(t, []string{"spy.json", "qqq.json"}, cfg.Driver.Scenarios)
	assert.Equal(t, 3, cfg.Driver.Rounds)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yml", "listen: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "invalid.yml", "listen:\n  bind_address: \"::1\"\n"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestSaveLoad(t *testing.T) {
	cfg := Default()
	cfg.Listen.Port = 9200
	cfg.Listen.IOTimeout = time.Second
	cfg.Driver.Scenarios = []string{"spy.json"}

	path := filepath.Join(t.TempDir(), "saved.yml")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hostname bind address", func(c *Config) { c.Listen.BindAddress = "localhost" }},
		{"negative io timeout", func(c *Config) { c.Listen.IOTimeout = -time.Second }},
		{"negative frame size", func(c *Config) { c.Listen.MaxFrameSize = -1 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero rounds", func(c *Config) { c.Driver.Rounds = 0 }},
		{"negative interval", func(c *Config) { c.Driver.Interval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalidValue))
		})
	}
}

func TestApplyEnv_File(t *testing.T) {
	path := writeFile(t, ".env", "BRIDGE_PORT=9300\nBRIDGE_IO_TIMEOUT=2s\nBRIDGE_REACCEPT=false\n")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, path))

	assert.Equal(t, uint16(9300), cfg.Listen.Port)
	assert.Equal(t, 2*time.Second, cfg.Listen.IOTimeout)
	assert.False(t, cfg.Session.Reaccept)
}

func TestApplyEnv_ProcessWinsOverFile(t *testing.T) {
	path := writeFile(t, ".env", "BRIDGE_PORT=9300\nBRIDGE_LOG_LEVEL=debug\n")
	t.Setenv(EnvPort, "9400")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9401")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, path))

	assert.Equal(t, uint16(9400), cfg.Listen.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9401", cfg.Metrics.Addr)
}

func TestApplyEnv_MissingFile(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv_Invalid(t *testing.T) {
	for key, value := range map[string]string{
		EnvPort:          "70000",
		EnvAcceptTimeout: "soon",
		EnvMaxFrameSize:  "big",
		EnvReaccept:      "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			err := ApplyEnv(Default(), "")
			assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
		})
	}
}

func TestBridgeOptions(t *testing.T) {
	cfg := Default()
	cfg.Listen.BindAddress = "127.0.0.1"
	cfg.Listen.MaxFrameSize = 0

	l, err := bridge.New(cfg.BridgeOptions()...)
	require.NoError(t, err)
	assert.Equal(t, bridge.StateUninitialized, l.State())

	cfg.Listen.MaxFrameSize = 10
	_, err = bridge.New(cfg.BridgeOptions()...)
	assert.Equal(t, bridge.ErrInvalidFrameSize, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "fpgabridge.example.yml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9102", cfg.Metrics.Addr)
	assert.Equal(t, 100*time.Millisecond, cfg.Driver.Interval)
	assert.Len(t, cfg.Driver.Scenarios, 1)
}
