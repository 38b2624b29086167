package bridge

import (
	"net"
	"time"
)

// listenBacklog allows a single pending connection: one driver at a time.
const listenBacklog = 1

// Open binds the listening endpoint on port and moves the lifecycle to
// Listening. Port 0 lets the OS pick a free port; Addr reports it.
//
// Each step of socket setup fails with its own *TransportError and leaves
// nothing open behind. Open on a listening lifecycle returns
// ErrAlreadyListening, on a closed one ErrLifecycleClosed.
func (l *Lifecycle) Open(port uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateClosed:
		return ErrLifecycleClosed
	case StateListening, StateConnected:
		return ErrAlreadyListening
	}

	ln, err := listenTCP4(l.opts.bindIP, port)
	if err != nil {
		l.logger.Error("socket server init failed", "port", port, "error", err)
		l.opts.observer.OnError(err)
		return err
	}

	l.listener = ln
	l.state = StateListening
	l.logger.Info("socket server listening", "port", ln.Addr().(*net.TCPAddr).Port)

	return nil
}

// AcceptOne blocks until a driver connects and makes it the active client.
//
// It returns early when the accept timeout expires or the lifecycle is
// closed from another goroutine; both are reported as a *TransportError
// with Op "accept" and leave the lifecycle Listening, so the call can be
// retried. Only one client may be active at a time.
func (l *Lifecycle) AcceptOne() error {
	l.mu.Lock()
	ln := l.listener
	switch {
	case l.state == StateClosed:
		l.mu.Unlock()
		return ErrLifecycleClosed
	case ln == nil:
		l.mu.Unlock()
		return ErrNotListening
	case l.client != nil:
		l.mu.Unlock()
		return ErrClientActive
	}
	l.mu.Unlock()

	_ = ln.SetDeadline(deadline(l.opts.acceptTimeout))

	l.logger.Info("waiting for client connection", "addr", ln.Addr())
	conn, err := ln.AcceptTCP()
	if err != nil {
		err = transportError("accept", err)
		l.logger.Error("accept failed", "error", err)
		l.opts.observer.OnError(err)
		return err
	}
	_ = conn.SetNoDelay(true)

	l.mu.Lock()
	if l.listener != ln {
		l.mu.Unlock()
		_ = conn.Close()
		return ErrLifecycleClosed
	}
	if l.client != nil {
		l.mu.Unlock()
		_ = conn.Close()
		return ErrClientActive
	}
	s := newSession(conn, l.opts.maxFrameSize)
	l.client = s
	l.state = StateConnected
	l.mu.Unlock()

	l.logger.Info("client connected", "remote_addr", s.addr)
	l.opts.observer.OnAccept(s.addr)

	return nil
}

// Addr returns the listening address, or nil when not listening.
func (l *Lifecycle) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// deadline converts a timeout into an absolute deadline. Zero means none.
func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
