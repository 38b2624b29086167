// Package runner drives a bridge lifecycle: it serves one driver session at
// a time and answers every inbound record with the processor's action.
package runner

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	bridge "github.com/Zereker/fpgabridge"
)

const shutdownTimeout = 5 * time.Second

// Endpoint is the part of *bridge.Lifecycle the runner uses.
type Endpoint interface {
	Open(port uint16) error
	AcceptOne() error
	Receive() (bridge.InboundRecord, error)
	Send(rec bridge.OutboundRecord) error
	DropClient() error
	Close() error
	Addr() net.Addr
}

// Processor turns one inbound record into the action sent back.
type Processor interface {
	Process(rec bridge.InboundRecord) bridge.OutboundRecord
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(rec bridge.InboundRecord) bridge.OutboundRecord

// Process calls f(rec).
func (f ProcessorFunc) Process(rec bridge.InboundRecord) bridge.OutboundRecord {
	return f(rec)
}

// Config controls the serve loop.
type Config struct {
	Port     uint16
	Reaccept bool // accept the next driver after a disconnect instead of returning

	// MetricsAddr starts an HTTP server exposing Metrics when both are set.
	MetricsAddr string
	Metrics     http.Handler
}

// Runner serves driver sessions on an Endpoint until its context ends.
type Runner struct {
	ep     Endpoint
	proc   Processor
	cfg    Config
	logger *zap.Logger

	sessions atomic.Int64
	records  atomic.Int64
	skipped  atomic.Int64

	mu          sync.Mutex
	metricsAddr net.Addr
}

// New creates a Runner. A nil logger disables logging.
func New(ep Endpoint, proc Processor, cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		ep:     ep,
		proc:   proc,
		cfg:    cfg,
		logger: logger,
	}
}

// Run opens the endpoint and serves until ctx is cancelled, the driver
// disconnects with Reaccept off, or a fatal error occurs. The endpoint is
// closed when Run returns.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ep.Open(r.cfg.Port); err != nil {
		return errors.WithMessage(err, "open bridge")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return r.serve(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		if err := r.ep.Close(); err != nil {
			r.logger.Warn("close bridge", zap.Error(err))
		}
		return nil
	})

	if r.cfg.MetricsAddr != "" && r.cfg.Metrics != nil {
		ln, err := net.Listen("tcp", r.cfg.MetricsAddr)
		if err != nil {
			cancel()
			_ = g.Wait()
			return errors.Wrap(err, "listen metrics")
		}
		r.setMetricsAddr(ln.Addr())

		srv := &http.Server{Handler: r.cfg.Metrics, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			r.logger.Info("metrics server listening", zap.Stringer("addr", ln.Addr()))
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serve metrics")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	return g.Wait()
}

// Sessions returns the number of driver sessions served so far.
func (r *Runner) Sessions() int64 { return r.sessions.Load() }

// Records returns the number of records answered.
func (r *Runner) Records() int64 { return r.records.Load() }

// Skipped returns the number of inbound frames dropped as undecodable.
func (r *Runner) Skipped() int64 { return r.skipped.Load() }

// MetricsAddr returns the bound metrics address, or nil when disabled.
func (r *Runner) MetricsAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metricsAddr
}

func (r *Runner) setMetricsAddr(addr net.Addr) {
	r.mu.Lock()
	r.metricsAddr = addr
	r.mu.Unlock()
}

func (r *Runner) serve(ctx context.Context) error {
	for ctx.Err() == nil {
		err := r.ep.AcceptOne()
		switch {
		case err == nil:
		case ctx.Err() != nil, errors.Is(err, bridge.ErrLifecycleClosed):
			return nil
		case isTimeout(err):
			continue
		default:
			return errors.WithMessage(err, "accept driver")
		}

		r.sessions.Add(1)
		if err = r.session(ctx); err != nil {
			return err
		}
		if reset, ok := r.proc.(interface{ Reset() }); ok {
			reset.Reset()
		}

		if !r.cfg.Reaccept {
			r.logger.Info("driver gone, not accepting another")
			return nil
		}
	}
	return nil
}

// session answers records until the driver leaves. A nil return means the
// session ended and the endpoint is ready for the next driver.
func (r *Runner) session(ctx context.Context) error {
	for {
		rec, err := r.ep.Receive()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, bridge.ErrPeerDisconnected):
			r.logger.Info("driver disconnected", zap.Int64("records", r.records.Load()))
			return nil
		case errors.Is(err, bridge.ErrNoActiveConnection):
			return nil
		case isTimeout(err):
			continue
		case bridge.IsTransport(err):
			r.logger.Warn("dropping driver", zap.Error(err))
			return r.drop()
		default:
			r.skipped.Add(1)
			r.logger.Warn("skipping frame", zap.Error(err))
			continue
		}

		out := r.proc.Process(rec)
		if err = r.ep.Send(out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("dropping driver", zap.Error(err))
			return r.drop()
		}
		r.records.Add(1)
	}
}

func (r *Runner) drop() error {
	if err := r.ep.DropClient(); err != nil {
		r.logger.Debug("close driver connection", zap.Error(err))
	}
	return nil
}

func isTimeout(err error) bool {
	var te *bridge.TransportError
	return errors.As(err, &te) && te.Timeout()
}
