// Package driver is the test driver side of the bridge: it streams market
// snapshots to a listening bridge and reads back one action per snapshot.
package driver

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	bridge "github.com/Zereker/fpgabridge"
	"github.com/Zereker/fpgabridge/internal/scenario"
	"github.com/Zereker/fpgabridge/internal/strategy"
)

// Config controls a driver run.
type Config struct {
	Addr     string
	Rounds   int           // passes over the snapshot list, at least one
	Interval time.Duration // pause between snapshots
	Timeout  time.Duration // dial and per-exchange deadline, 0 for none
}

// Result is one completed exchange.
type Result struct {
	Round    int
	Snapshot scenario.Snapshot
	Sent     bridge.InboundRecord
	Action   bridge.OutboundRecord
	Position int32 // position after applying Action as a fill
}

// Driver assumes every buy or sell it reads back fills in full and keeps
// the resulting position, which it reports in the next inbound record.
type Driver struct {
	cfg      Config
	logger   *zap.Logger
	position int32
}

// New creates a Driver. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Driver {
	if cfg.Rounds < 1 {
		cfg.Rounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{cfg: cfg, logger: logger}
}

// Position returns the tracked position.
func (d *Driver) Position() int32 {
	return d.position
}

// Run connects to the bridge and exchanges every snapshot Rounds times,
// calling fn after each exchange. Cancelling ctx aborts a blocked exchange.
func (d *Driver) Run(ctx context.Context, snaps []scenario.Snapshot, fn func(Result)) error {
	if len(snaps) == 0 {
		return errors.New("no snapshots to send")
	}

	dialer := net.Dialer{Timeout: d.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp4", d.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "dial bridge %s", d.cfg.Addr)
	}
	defer conn.Close()

	d.logger.Info("connected to bridge", zap.Stringer("addr", conn.RemoteAddr()))

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return d.exchange(ctx, conn, snaps, fn)
	})
	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})

	if err = g.Wait(); parent.Err() != nil {
		return parent.Err()
	}
	return err
}

func (d *Driver) exchange(ctx context.Context, conn net.Conn, snaps []scenario.Snapshot, fn func(Result)) error {
	reader := bufio.NewReader(conn)

	for round := 1; round <= d.cfg.Rounds; round++ {
		for i, snap := range snaps {
			if round > 1 || i > 0 {
				if err := d.pause(ctx); err != nil {
					return err
				}
			}

			sent := snap.Inbound(d.position)
			action, err := d.roundTrip(conn, reader, sent)
			if err != nil {
				return errors.WithMessagef(err, "%s round %d", snap.Symbol, round)
			}

			d.apply(action)
			d.logger.Debug("exchange",
				zap.String("symbol", snap.Symbol),
				zap.Stringer("sent", sent),
				zap.Stringer("action", action),
				zap.Int32("position", d.position),
			)

			if fn != nil {
				fn(Result{Round: round, Snapshot: snap, Sent: sent, Action: action, Position: d.position})
			}
		}
	}
	return nil
}

func (d *Driver) roundTrip(conn net.Conn, reader *bufio.Reader, rec bridge.InboundRecord) (bridge.OutboundRecord, error) {
	if d.cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(d.cfg.Timeout))
	}

	if _, err := conn.Write(bridge.EncodeInbound(rec)); err != nil {
		return bridge.OutboundRecord{}, errors.Wrap(err, "send snapshot")
	}

	line, err := reader.ReadBytes('\n')
	if err != nil {
		return bridge.OutboundRecord{}, errors.Wrap(err, "read action")
	}

	return bridge.DecodeOutbound(line)
}

func (d *Driver) apply(action bridge.OutboundRecord) {
	switch action.Action {
	case strategy.ActionBuy:
		d.position += action.Quantity
	case strategy.ActionSell:
		d.position -= action.Quantity
	}
}

func (d *Driver) pause(ctx context.Context) error {
	if d.cfg.Interval <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d.cfg.Interval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
