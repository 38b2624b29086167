package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zereker/fpgabridge/internal/config"
	"github.com/Zereker/fpgabridge/internal/driver"
	"github.com/Zereker/fpgabridge/internal/scenario"
)

var driveCmd = &cobra.Command{
	Use:   "drive [scenario.json ...]",
	Short: "Stream market-data scenarios to a running bridge",
	Long: `Connect to a bridge, send every scenario snapshot as an inbound record and
print the action read back for each. Without scenario files the built-in
SPY, QQQ and IWM snapshots are used.`,
	RunE: runDrive,
}

type driveOptions struct {
	addr     string
	rounds   int
	interval time.Duration
	timeout  time.Duration
}

var driveOpts = &driveOptions{}

func init() {
	flags := driveCmd.Flags()
	flags.StringVarP(&driveOpts.addr, "addr", "a", "127.0.0.1:9000", "bridge address")
	flags.IntVarP(&driveOpts.rounds, "rounds", "n", 1, "passes over the scenario list")
	flags.DurationVar(&driveOpts.interval, "interval", 0, "pause between snapshots")
	flags.DurationVar(&driveOpts.timeout, "timeout", 5*time.Second, "dial and exchange deadline, 0 waits forever")

	rootCmd.AddCommand(driveCmd)
}

func applyDriveFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Driver.Addr = driveOpts.addr
	}
	if flags.Changed("rounds") {
		cfg.Driver.Rounds = driveOpts.rounds
	}
	if flags.Changed("interval") {
		cfg.Driver.Interval = driveOpts.interval
	}
	if flags.Changed("timeout") {
		cfg.Driver.Timeout = driveOpts.timeout
	}
	if len(args) > 0 {
		cfg.Driver.Scenarios = args
	}
	return cfg.Validate()
}

func runDrive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err = applyDriveFlags(cmd, cfg, args); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	snaps := scenario.Defaults()
	if len(cfg.Driver.Scenarios) > 0 {
		if snaps, err = scenario.LoadFiles(cfg.Driver.Scenarios...); err != nil {
			return err
		}
	}

	d := driver.New(driver.Config{
		Addr:     cfg.Driver.Addr,
		Rounds:   cfg.Driver.Rounds,
		Interval: cfg.Driver.Interval,
		Timeout:  cfg.Driver.Timeout,
	}, logger.Named("driver"))

	var exchanges int
	err = d.Run(cmd.Context(), snaps, func(res driver.Result) {
		exchanges++
		logger.Info("fpga result",
			zap.Int("round", res.Round),
			zap.String("symbol", res.Snapshot.Symbol),
			zap.Int32("action", res.Action.Action),
			zap.Int32("price", res.Action.Price),
			zap.Int32("quantity", res.Action.Quantity),
			zap.Bool("idle", res.Action.Idle != 0),
			zap.Int32("position", res.Position),
		)
	})
	if err != nil {
		return err
	}

	logger.Info("drive finished", zap.Int("exchanges", exchanges), zap.Int32("position", d.Position()))
	return nil
}
