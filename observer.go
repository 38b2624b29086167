package bridge

import "net"

// Observer is notified of lifecycle events. Callbacks run synchronously on
// the goroutine that performed the operation and must not block.
type Observer interface {
	// OnAccept is called after a client connection was accepted.
	OnAccept(remote net.Addr)
	// OnReceive is called for every successfully decoded inbound record.
	OnReceive(rec InboundRecord)
	// OnSend is called after an outbound record was fully written.
	OnSend(rec OutboundRecord)
	// OnError is called for every failure returned to the caller,
	// including ErrPeerDisconnected and ErrMalformedRecord.
	OnError(err error)
}

type nopObserver struct{}

func (nopObserver) OnAccept(net.Addr)       {}
func (nopObserver) OnReceive(InboundRecord) {}
func (nopObserver) OnSend(OutboundRecord)   {}
func (nopObserver) OnError(error)           {}
