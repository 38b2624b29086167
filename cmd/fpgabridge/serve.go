package main

import (
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	bridge "github.com/Zereker/fpgabridge"
	"github.com/Zereker/fpgabridge/internal/config"
	"github.com/Zereker/fpgabridge/internal/logging"
	"github.com/Zereker/fpgabridge/internal/metrics"
	"github.com/Zereker/fpgabridge/internal/runner"
	"github.com/Zereker/fpgabridge/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge endpoint with the software strategy model",
	Long: `Listen for one driver at a time, answer each market-data record with the
0+ strategy's action and, when --metrics-addr is set, expose Prometheus
metrics over HTTP.`,
	RunE: runServe,
}

type serveOptions struct {
	port          uint16
	bindAddress   string
	acceptTimeout time.Duration
	ioTimeout     time.Duration
	maxFrameSize  int
	metricsAddr   string
	reaccept      bool
}

var serveOpts = &serveOptions{}

func init() {
	flags := serveCmd.Flags()
	flags.Uint16VarP(&serveOpts.port, "port", "p", 9000, "TCP port to listen on, 0 picks a free one")
	flags.StringVar(&serveOpts.bindAddress, "bind", "0.0.0.0", "IPv4 address to bind")
	flags.DurationVar(&serveOpts.acceptTimeout, "accept-timeout", 0, "accept deadline, 0 waits forever")
	flags.DurationVar(&serveOpts.ioTimeout, "io-timeout", 0, "receive and send deadline, 0 waits forever")
	flags.IntVar(&serveOpts.maxFrameSize, "max-frame-size", 1024, "longest inbound line in bytes")
	flags.StringVar(&serveOpts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.BoolVar(&serveOpts.reaccept, "reaccept", true, "accept the next driver after a disconnect")

	rootCmd.AddCommand(serveCmd)
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Listen.Port = serveOpts.port
	}
	if flags.Changed("bind") {
		cfg.Listen.BindAddress = serveOpts.bindAddress
	}
	if flags.Changed("accept-timeout") {
		cfg.Listen.AcceptTimeout = serveOpts.acceptTimeout
	}
	if flags.Changed("io-timeout") {
		cfg.Listen.IOTimeout = serveOpts.ioTimeout
	}
	if flags.Changed("max-frame-size") {
		cfg.Listen.MaxFrameSize = serveOpts.maxFrameSize
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = serveOpts.metricsAddr
	}
	if flags.Changed("reaccept") {
		cfg.Session.Reaccept = serveOpts.reaccept
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err = applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	collector := metrics.NewCollector()

	opts := append(cfg.BridgeOptions(),
		bridge.LoggerOption(logging.NewAdapter(logger.Named("bridge"))),
		bridge.ObserverOption(collector),
	)
	lc, err := bridge.New(opts...)
	if err != nil {
		return err
	}

	r := runner.New(lc, strategy.NewZeroPlus(), runner.Config{
		Port:        cfg.Listen.Port,
		Reaccept:    cfg.Session.Reaccept,
		MetricsAddr: cfg.Metrics.Addr,
		Metrics:     collector.Handler(),
	}, logger.Named("runner"))

	logger.Info("starting bridge",
		zap.Stringer("bind", net.ParseIP(cfg.Listen.BindAddress)),
		zap.Uint16("port", cfg.Listen.Port),
		zap.Bool("reaccept", cfg.Session.Reaccept),
	)

	if err = r.Run(cmd.Context()); err != nil {
		logger.Error("bridge stopped", zap.Error(err))
		return err
	}

	logger.Info("bridge stopped",
		zap.Int64("sessions", r.Sessions()),
		zap.Int64("records", r.Records()),
		zap.Int64("skipped", r.Skipped()),
	)
	return nil
}
