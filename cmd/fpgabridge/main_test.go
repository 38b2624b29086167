package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseFlags parses args into cmd and restores every flag it touched,
// persistent root flags included, when the test ends.
func parseFlags(t *testing.T, cmd *cobra.Command, args ...string) {
	t.Helper()

	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		})
		*rootOpts = rootOptions{envFile: ".env"}
	})
	require.NoError(t, cmd.ParseFlags(args))
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bridge.yml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("listen:\n  port: 9100\n  io_timeout: 1s\nlog:\n  level: warn\n"), 0o644))

	rootOpts.configFile = cfgFile
	rootOpts.envFile = filepath.Join(dir, ".env")
	parseFlags(t, serveCmd, "--port", "9200", "--reaccept=false", "--log-format", "json")

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	require.NoError(t, applyServeFlags(serveCmd, cfg))

	assert.Equal(t, uint16(9200), cfg.Listen.Port)
	assert.Equal(t, time.Second, cfg.Listen.IOTimeout, "unset flags keep the file value")
	assert.False(t, cfg.Session.Reaccept)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDriveArgsSelectScenarios(t *testing.T) {
	rootOpts.envFile = ""
	parseFlags(t, driveCmd, "--rounds", "3", "--addr", "127.0.0.1:9300")

	cfg, err := loadConfig(driveCmd)
	require.NoError(t, err)
	require.NoError(t, applyDriveFlags(driveCmd, cfg, []string{"spy.json"}))

	assert.Equal(t, 3, cfg.Driver.Rounds)
	assert.Equal(t, "127.0.0.1:9300", cfg.Driver.Addr)
	assert.Equal(t, []string{"spy.json"}, cfg.Driver.Scenarios)

	parseFlags(t, driveCmd, "--rounds", "0")
	assert.Error(t, applyDriveFlags(driveCmd, cfg, nil))
}

func TestParsedFlagsDoNotLeakBetweenTests(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		parseFlags(t, serveCmd, "--log-format", "json", "--port", "9400")
		assert.True(t, serveCmd.Flags().Changed("log-format"))
	})

	t.Run("reload", func(t *testing.T) {
		rootOpts.envFile = ""
		parseFlags(t, driveCmd)

		assert.False(t, serveCmd.Flags().Changed("log-format"))
		assert.False(t, serveCmd.Flags().Changed("port"))
		assert.False(t, rootCmd.PersistentFlags().Changed("log-format"))

		cfg, err := loadConfig(driveCmd)
		require.NoError(t, err)
		assert.Equal(t, "console", cfg.Log.Format)
		require.NoError(t, applyDriveFlags(driveCmd, cfg, nil))
	})
}
