package metrics

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridge "github.com/Zereker/fpgabridge"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.Wrap(bridge.ErrMalformedRecord, "parsed 3 of 7 fields"), KindMalformed},
		{bridge.ErrPeerDisconnected, KindPeerDisconnected},
		{bridge.ErrNoActiveConnection, KindNoConnection},
		{&bridge.TransportError{Op: "recv", Err: io.ErrUnexpectedEOF}, "recv"},
		{&bridge.TransportError{Op: "accept", Err: timeoutErr{}}, "accept_timeout"},
		{&bridge.TransportError{Op: "send", Err: os.ErrDeadlineExceeded}, "send_timeout"},
		{errors.New("boom"), KindOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "%v", tt.err)
	}
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.OnAccept(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000})
	c.OnReceive(bridge.InboundRecord{BidPrice: 50000, AskPrice: 50001, Position: 50})
	c.OnReceive(bridge.InboundRecord{BidPrice: 50000, AskPrice: 50001, Position: -25})
	c.OnSend(bridge.OutboundRecord{Action: 1, Price: 50000, Quantity: 50, Done: 1, Ready: 1})
	c.OnSend(bridge.OutboundRecord{Idle: 1, Done: 1, Ready: 1})
	c.OnError(bridge.ErrPeerDisconnected)
	c.OnError(errors.Wrap(bridge.ErrMalformedRecord, "bad"))
	c.OnError(bridge.ErrMalformedRecord)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.accepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.received))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.sent))
	assert.Equal(t, -25.0, testutil.ToFloat64(c.position))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.action.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.action.WithLabelValues("hold")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.errors.WithLabelValues(KindMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues(KindPeerDisconnected)))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.OnReceive(bridge.InboundRecord{Position: 7})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "fpgabridge_records_received_total 1")
	assert.Contains(t, string(body), "fpgabridge_position 7")
}

func TestCollector_WithLifecycle(t *testing.T) {
	c := NewCollector()

	l, err := bridge.New(
		bridge.BindAddressOption(net.IPv4(127, 0, 0, 1)),
		bridge.ObserverOption(c),
	)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Receive()
	require.Equal(t, bridge.ErrNoActiveConnection, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues(KindNoConnection)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.errors))
}
