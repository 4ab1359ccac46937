package network

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the manager's Prometheus collectors.
type Metrics struct {
	ConnectAttempts prometheus.Counter
	Connections     prometheus.Counter
	Disconnects     prometheus.Counter
	Open            prometheus.Gauge
	CommandsSent    *prometheus.CounterVec
	CommandsDropped *prometheus.CounterVec
	Events          *prometheus.CounterVec
	Unhandled       prometheus.Counter
	DecodeErrors    prometheus.Counter
	Resyncs         *prometheus.CounterVec
	Predictions     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const ns, sub = "arena", "client"

	return &Metrics{
		ConnectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "connect_attempts_total",
			Help: "Connection attempts, including reconnects",
		}),
		Connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "connections_total",
			Help: "Connections that reached the open state",
		}),
		Disconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "disconnects_total",
			Help: "Failed attempts and closed connections",
		}),
		Open: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "connection_open",
			Help: "1 while the connection is open",
		}),
		CommandsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "commands_sent_total",
			Help: "Commands handed to the transport, by tag",
		}, []string{"tag"}),
		CommandsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "commands_dropped_total",
			Help: "Commands dropped because the connection was not open, by tag",
		}, []string{"tag"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "events_total",
			Help: "Events dispatched, by tag",
		}, []string{"tag"}),
		Unhandled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "events_unhandled_total",
			Help: "Frames with a tag no handler is registered for",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "decode_errors_total",
			Help: "Frames dropped because they failed to decode",
		}),
		Resyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "resync_requests_total",
			Help: "Resync requests sent, by reason",
		}, []string{"reason"}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "predictions_total",
			Help: "Placement predictions by outcome",
		}, []string{"outcome"}),
	}
}
