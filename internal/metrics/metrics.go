// Package metrics exports bridge activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bridge "github.com/Zereker/fpgabridge"
)

const namespace = "fpgabridge"

// Error kinds used as the "kind" label of the errors counter.
const (
	KindMalformed        = "malformed"
	KindPeerDisconnected = "peer_disconnected"
	KindNoConnection     = "no_active_connection"
	KindOther            = "other"
)

// Collector implements bridge.Observer on a private registry.
type Collector struct {
	registry *prometheus.Registry

	accepted prometheus.Counter
	received prometheus.Counter
	sent     prometheus.Counter
	errors   *prometheus.CounterVec
	position prometheus.Gauge
	action   *prometheus.CounterVec
}

var _ bridge.Observer = (*Collector)(nil)

// NewCollector creates a Collector with its metrics registered.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Driver connections accepted.",
		}),
		received: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_received_total",
			Help:      "Inbound market-data records decoded.",
		}),
		sent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_sent_total",
			Help:      "Outbound action records written.",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed bridge operations by kind.",
		}, []string{"kind"}),
		position: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "position",
			Help:      "Position carried by the last inbound record.",
		}),
		action: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Outbound records by action code.",
		}, []string{"action"}),
	}
}

// OnAccept counts an accepted driver connection.
func (c *Collector) OnAccept(net.Addr) {
	c.accepted.Inc()
}

// OnReceive counts a decoded record and records its position.
func (c *Collector) OnReceive(rec bridge.InboundRecord) {
	c.received.Inc()
	c.position.Set(float64(rec.Position))
}

// OnSend counts a written record by action.
func (c *Collector) OnSend(rec bridge.OutboundRecord) {
	c.sent.Inc()
	c.action.WithLabelValues(actionLabel(rec.Action)).Inc()
}

// OnError counts err under its Kind.
func (c *Collector) OnError(err error) {
	c.errors.WithLabelValues(Kind(err)).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Kind classifies err for the errors counter. Transport failures are
// labelled by their operation, for example "recv" or "accept".
func Kind(err error) string {
	var te *bridge.TransportError
	switch {
	case errors.Is(err, bridge.ErrMalformedRecord):
		return KindMalformed
	case errors.Is(err, bridge.ErrPeerDisconnected):
		return KindPeerDisconnected
	case errors.Is(err, bridge.ErrNoActiveConnection):
		return KindNoConnection
	case errors.As(err, &te):
		if te.Timeout() {
			return te.Op + "_timeout"
		}
		return te.Op
	default:
		return KindOther
	}
}

func actionLabel(action int32) string {
	switch action {
	case 0:
		return "hold"
	case 1:
		return "buy"
	case 2:
		return "sell"
	default:
		return "unknown"
	}
}
