package bridge

import (
	"net"
	"time"
)

// Frame size limits for inbound reads.
const (
	// defaultMaxFrameSize matches the fixed receive buffer of the co-simulation harness.
	defaultMaxFrameSize = 1024
	// minFrameSize fits seven minimal int32 values, six commas and a terminator.
	minFrameSize = 7*len("-2147483648") + 6 + 1
)

// options holds the configuration for a Lifecycle.
type options struct {
	codec    Codec
	logger   Logger
	observer Observer

	bindIP        net.IP
	acceptTimeout time.Duration // zero blocks until a peer connects
	ioTimeout     time.Duration // zero blocks until data or disconnect
	maxFrameSize  int           // upper bound of a single inbound frame
}

// Option is a function that configures a Lifecycle.
type Option func(*options)

// checkOptions validates and sets default values for lifecycle options.
func checkOptions(opts *options) error {
	if opts.codec == nil {
		opts.codec = CSVCodec{}
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.observer == nil {
		opts.observer = nopObserver{}
	}

	if opts.bindIP == nil {
		opts.bindIP = net.IPv4zero
	}
	if opts.bindIP.To4() == nil {
		return ErrInvalidBindAddress
	}

	if opts.maxFrameSize == 0 {
		opts.maxFrameSize = defaultMaxFrameSize
	}
	if opts.maxFrameSize < minFrameSize {
		return ErrInvalidFrameSize
	}

	if opts.acceptTimeout < 0 {
		opts.acceptTimeout = 0
	}
	if opts.ioTimeout < 0 {
		opts.ioTimeout = 0
	}

	return nil
}

// CodecOption replaces the comma-separated wire codec.
func CodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// LoggerOption sets the logger. If not set, the default slog logger is used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ObserverOption registers callbacks for accepted connections, records and failures.
func ObserverOption(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// BindAddressOption sets the IPv4 address to listen on. Default is all interfaces.
func BindAddressOption(ip net.IP) Option {
	return func(o *options) {
		o.bindIP = ip
	}
}

// AcceptTimeoutOption bounds how long AcceptOne waits for a peer.
// A timed out accept leaves the lifecycle listening and may be retried.
func AcceptTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.acceptTimeout = timeout
	}
}

// IOTimeoutOption sets the read deadline for Receive and the write deadline for Send.
func IOTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.ioTimeout = timeout
	}
}

// MaxFrameSizeOption sets the receive buffer bound. A line longer than this
// is cut at the bound and decoded as is.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}
