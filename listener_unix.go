//go:build unix

package bridge

import (
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenTCP4 performs socket, setsockopt(SO_REUSEADDR), bind and listen as
// separate steps so each failure is reported on its own and the backlog
// stays at one pending connection. The descriptor is then handed to the
// runtime poller.
func listenTCP4(ip net.IP, port uint16) (*net.TCPListener, error) {
	syscall.ForkLock.RLock()
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return nil, transportError("socket", os.NewSyscallError("socket", err))
	}

	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, transportError("setsockopt", os.NewSyscallError("setsockopt", err))
	}

	sa := &unix.SockaddrInet4{Port: int(port)}
	copy(sa.Addr[:], ip.To4())
	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, transportError("bind", os.NewSyscallError("bind", err))
	}

	if err = unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return nil, transportError("listen", os.NewSyscallError("listen", err))
	}

	// FileListener dups the descriptor, so fd is closed either way.
	f := os.NewFile(uintptr(fd), "fpgabridge-listener")
	ln, err := net.FileListener(f)
	_ = f.Close()
	if err != nil {
		return nil, transportError("listen", err)
	}

	return ln.(*net.TCPListener), nil
}
