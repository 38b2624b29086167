package bridge

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// session is the accepted client handle: the TCP connection plus a frame
// reader bounded by the configured frame size.
type session struct {
	conn   *net.TCPConn
	reader *bufio.Reader
	addr   net.Addr

	frame    []byte
	maxFrame int
	complete bool // frame holds a frame already returned to the caller
	cut      bool // last frame stopped at maxFrame before its terminator

	closed atomic.Bool
}

func newSession(conn *net.TCPConn, maxFrame int) *session {
	return &session{
		conn:     conn,
		reader:   bufio.NewReaderSize(conn, maxFrame),
		addr:     conn.RemoteAddr(),
		frame:    make([]byte, 0, maxFrame),
		maxFrame: maxFrame,
		complete: true,
	}
}

// readFrame returns the bytes up to the next newline or NUL, without the
// terminator. A frame reaching maxFrame bytes is returned as is, and a
// terminator directly after it is dropped. A partial frame followed by EOF
// is returned too. io.EOF is only returned when no bytes are
// pending. Bytes gathered before a read error are kept for the next call.
func (s *session) readFrame(timeout time.Duration) ([]byte, error) {
	if s.closed.Load() {
		return nil, net.ErrClosed
	}
	_ = s.conn.SetReadDeadline(deadline(timeout))

	if s.complete {
		s.frame = s.frame[:0]
		s.complete = false
	}

	for {
		if len(s.frame) == s.maxFrame {
			s.cut = true
			break
		}

		b, err := s.reader.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(s.frame) > 0 {
				break
			}
			return nil, err
		}

		// The terminator right after a frame cut at the bound belongs to that frame.
		if s.cut {
			s.cut = false
			if b == '\n' || b == 0 {
				continue
			}
		}

		if b == '\n' || b == 0 {
			break
		}
		s.frame = append(s.frame, b)
	}

	s.complete = true
	return s.frame, nil
}

// write sends p in full or fails.
func (s *session) write(p []byte, timeout time.Duration) error {
	if s.closed.Load() {
		return net.ErrClosed
	}
	_ = s.conn.SetWriteDeadline(deadline(timeout))

	_, err := s.conn.Write(p)
	return err
}

// close releases the connection. Safe to call multiple times.
func (s *session) close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}
