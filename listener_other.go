//go:build !unix

package bridge

import "net"

// listenTCP4 falls back to the runtime listener where raw socket calls are
// unavailable. The OS default backlog applies.
func listenTCP4(ip net.IP, port uint16) (*net.TCPListener, error) {
	ln, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: ip, Port: int(port)})
	if err != nil {
		return nil, transportError("listen", err)
	}
	return ln, nil
}
