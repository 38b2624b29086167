package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zereker/fpgabridge/internal/config"
	"github.com/Zereker/fpgabridge/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "fpgabridge",
	Short: "TCP bridge between an FPGA co-processor simulation and a market-data driver",
	Long: `fpgabridge carries comma-separated market-data records from a test driver
to a hardware co-processor model and carries its trading actions back.

"serve" runs the bridge endpoint with the built-in 0+ strategy model.
"drive" plays market-data scenarios against a running bridge.`,
	SilenceUsage: true,
}

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

var rootOpts = &rootOptions{}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootOpts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&rootOpts.envFile, "env-file", ".env", "dotenv file with BRIDGE_* overrides, ignored when missing")
	flags.StringVar(&rootOpts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&rootOpts.logFormat, "log-format", "", "log format: console or json")
}

func executeWithContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig layers defaults, the config file, the env file, the process
// environment and finally explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rootOpts.configFile != "" {
		var err error
		if cfg, err = config.Load(rootOpts.configFile); err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(cfg, rootOpts.envFile); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = rootOpts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = rootOpts.logFormat
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}
