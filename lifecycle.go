// Package bridge connects a hardware simulation or FPGA co-processor to an
// external test driver over TCP. A Lifecycle accepts one driver at a time,
// decodes its comma-separated market-data lines into InboundRecord values
// and writes OutboundRecord actions back as comma-separated lines.
//
// All operations block on the calling goroutine. Timeouts are opt-in via
// AcceptTimeoutOption and IOTimeoutOption.
package bridge

import (
	"errors"
	"io"
	"net"
	"sync"

	"go.uber.org/multierr"
)

// State is the position of a Lifecycle in its state machine.
type State int32

const (
	StateUninitialized State = iota
	StateListening
	StateConnected
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle owns the listening endpoint and at most one active client.
//
// The mutex only guards handle transitions and is never held across
// blocking I/O, so Close may be called from another goroutine to unblock
// AcceptOne or Receive. Receive and Send themselves must not be called
// concurrently with each other on the same Lifecycle.
type Lifecycle struct {
	opts   options
	logger Logger

	mu       sync.Mutex
	state    State
	listener *net.TCPListener
	client   *session
}

// New creates a Lifecycle in the Uninitialized state.
// Returns an error if an option value is invalid.
func New(opt ...Option) (*Lifecycle, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	return &Lifecycle{
		opts:   opts,
		logger: opts.logger,
	}, nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// RemoteAddr returns the active client's address, or nil without a client.
func (l *Lifecycle) RemoteAddr() net.Addr {
	if s := l.activeClient(); s != nil {
		return s.addr
	}
	return nil
}

// Receive blocks for the next frame from the client and decodes it.
//
// Errors:
//   - ErrNoActiveConnection: no client is connected
//   - ErrPeerDisconnected: the client closed the connection; the client
//     handle is released and the lifecycle is Listening again
//   - ErrMalformedRecord: the frame did not hold seven integers; the
//     connection stays open
//   - *TransportError with Op "recv": read failure or deadline expiry;
//     the connection stays open
func (l *Lifecycle) Receive() (InboundRecord, error) {
	s := l.activeClient()
	if s == nil {
		l.logger.Warn("receive without client")
		l.opts.observer.OnError(ErrNoActiveConnection)
		return InboundRecord{}, ErrNoActiveConnection
	}

	frame, err := s.readFrame(l.opts.ioTimeout)
	if err != nil {
		if errors.Is(err, io.EOF) {
			_ = l.releaseClient(s)
			l.logger.Info("client disconnected", "remote_addr", s.addr)
			l.opts.observer.OnError(ErrPeerDisconnected)
			return InboundRecord{}, ErrPeerDisconnected
		}

		err = transportError("recv", err)
		l.logger.Error("receive failed", "remote_addr", s.addr, "error", err)
		l.opts.observer.OnError(err)
		return InboundRecord{}, err
	}

	rec, err := l.opts.codec.DecodeInbound(frame)
	if err != nil {
		l.logger.Warn("invalid data format", "remote_addr", s.addr, "error", err)
		l.opts.observer.OnError(err)
		return InboundRecord{}, err
	}

	l.logger.Debug("received market data", "bid", rec.BidPrice, "ask", rec.AskPrice)
	l.opts.observer.OnReceive(rec)

	return rec, nil
}

// Send encodes rec and writes the whole line to the client.
//
// Errors:
//   - ErrNoActiveConnection: no client is connected
//   - *TransportError with Op "send": write failure or deadline expiry
//   - encoding error from a custom codec
func (l *Lifecycle) Send(rec OutboundRecord) error {
	s := l.activeClient()
	if s == nil {
		l.logger.Warn("send without client")
		l.opts.observer.OnError(ErrNoActiveConnection)
		return ErrNoActiveConnection
	}

	data, err := l.opts.codec.EncodeOutbound(rec)
	if err != nil {
		l.logger.Error("encode failed", "error", err)
		l.opts.observer.OnError(err)
		return err
	}

	if err = s.write(data, l.opts.ioTimeout); err != nil {
		err = transportError("send", err)
		l.logger.Error("send failed", "remote_addr", s.addr, "error", err)
		l.opts.observer.OnError(err)
		return err
	}

	l.logger.Debug("sent fpga result", "action", rec.Action, "price", rec.Price, "quantity", rec.Quantity)
	l.opts.observer.OnSend(rec)

	return nil
}

// DropClient closes the active client, if any, and returns the lifecycle to
// Listening so AcceptOne can take the next driver.
func (l *Lifecycle) DropClient() error {
	s := l.activeClient()
	if s == nil {
		return nil
	}
	return l.releaseClient(s)
}

// Close releases the client handle, then the listening handle, and moves
// the lifecycle to Closed. Safe to call multiple times and from any state.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return nil
	}
	client, ln := l.client, l.listener
	l.client, l.listener = nil, nil
	l.state = StateClosed
	l.mu.Unlock()

	var err error
	if client != nil {
		err = multierr.Append(err, client.close())
		l.logger.Info("client socket closed", "remote_addr", client.addr)
	}
	if ln != nil {
		err = multierr.Append(err, ln.Close())
		l.logger.Info("server socket closed", "addr", ln.Addr())
	}

	return err
}

func (l *Lifecycle) activeClient() *session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client
}

// releaseClient detaches s if it is still the active client and closes it.
func (l *Lifecycle) releaseClient(s *session) error {
	l.mu.Lock()
	if l.client == s {
		l.client = nil
		if l.state == StateConnected {
			l.state = StateListening
		}
	}
	l.mu.Unlock()

	return s.close()
}
