// Package mstat collects Prometheus metrics for a Session Engine. Grounded
// in the teacher's stat.go Stat struct and Register method, trimmed to the
// client-side counters and to dropping the HTTP exposition server — serving
// /metrics is a concern of the application embedding this client, not of
// the client library, so Registry exposes its collectors for the caller to
// register on its own mux instead.
package mstat

import "github.com/prometheus/client_golang/prometheus"

// Registry holds one Session Engine's metric collectors. The zero value is
// not usable; construct with New.
type Registry struct {
	ConnectAttempts    prometheus.Counter
	ConnectFailures    prometheus.Counter
	PacketsSent        prometheus.Counter
	BytesSent          prometheus.Counter
	PacketsReceived    prometheus.Counter
	BytesReceived      prometheus.Counter
	PendingReplyDepth  prometheus.Gauge
	PingFailures       prometheus.Counter
}

// New constructs a Registry with clientID folded into each collector's
// constant labels, so one Prometheus registry can hold several clients'
// metrics side by side.
func New(clientID string) *Registry {
	labels := prometheus.Labels{"client_id": clientID}
	return &Registry{
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_connect_attempts_total", Help: "Low-level connection attempts made.", ConstLabels: labels,
		}),
		ConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_connect_failures_total", Help: "Failed connection or CONNACK attempts.", ConstLabels: labels,
		}),
		PacketsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_packets_sent_total", Help: "Control packets written to the transport.", ConstLabels: labels,
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_bytes_sent_total", Help: "Bytes written to the transport.", ConstLabels: labels,
		}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_packets_received_total", Help: "Control packets decoded from the transport.", ConstLabels: labels,
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_bytes_received_total", Help: "Bytes read from the transport.", ConstLabels: labels,
		}),
		PendingReplyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt5_pending_replies", Help: "Outstanding subscribe/unsubscribe replies awaiting a match.", ConstLabels: labels,
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt5_ping_failures_total", Help: "Keepalive liveness failures.", ConstLabels: labels,
		}),
	}
}

// MustRegister registers every collector in r on reg.
func (r *Registry) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		r.ConnectAttempts, r.ConnectFailures,
		r.PacketsSent, r.BytesSent,
		r.PacketsReceived, r.BytesReceived,
		r.PendingReplyDepth, r.PingFailures,
	)
}
