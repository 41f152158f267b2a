package brlapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the server's observability surface (Domain Stack addition:
// spec.md is silent on metrics, but every long-running daemon in this pack
// exposes one). Rather than hand-rolled atomic counters, this is backed
// by real Prometheus collectors, registered against whatever registerer
// the caller supplies.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	AuthFailure()
	BytesSent(n int)
	BytesReceived(n int)
	KeyRouted()
	KeyDropped()
	RawSessionStarted()
	RawSessionEnded()
}

// PromMetrics implements Metrics with Prometheus collectors, the pattern
// used by runZeroInc/sockstats's and runZeroInc/conniver's
// pkg/exporter.TCPInfoCollector (prometheus.Desc-backed metrics), here via
// simple counters/gauges since there's no per-connection syscall data to
// sample.
type PromMetrics struct {
	connections   prometheus.Gauge
	authFailures  prometheus.Counter
	bytesSent     prometheus.Counter
	bytesReceived prometheus.Counter
	keysRouted    prometheus.Counter
	keysDropped   prometheus.Counter
	rawSessions   prometheus.Gauge
}

// NewPromMetrics constructs and registers a PromMetrics against reg. Passing
// a fresh prometheus.NewRegistry() is recommended for tests; production
// callers typically pass prometheus.DefaultRegisterer.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brlapi",
			Name:      "connections",
			Help:      "Number of currently open client connections.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brlapi",
			Name:      "auth_failures_total",
			Help:      "Number of AUTHKEY mismatches.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brlapi",
			Name:      "bytes_sent_total",
			Help:      "Raw-mode PACKET payload bytes forwarded to the driver; frames written to client sockets are not counted.",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brlapi",
			Name:      "bytes_received_total",
			Help:      "Bytes read from client sockets.",
		}),
		keysRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brlapi",
			Name:      "keys_routed_total",
			Help:      "Key events delivered to a connection or the screen reader.",
		}),
		keysDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brlapi",
			Name:      "keys_dropped_total",
			Help:      "Key events dropped: buffer overflow or no command mapping.",
		}),
		rawSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brlapi",
			Name:      "raw_sessions",
			Help:      "Number of connections currently holding the raw-mode gate (0 or 1).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.authFailures, m.bytesSent, m.bytesReceived,
			m.keysRouted, m.keysDropped, m.rawSessions)
	}
	return m
}

func (m *PromMetrics) ConnectionOpened()  { m.connections.Inc() }
func (m *PromMetrics) ConnectionClosed()  { m.connections.Dec() }
func (m *PromMetrics) AuthFailure()       { m.authFailures.Inc() }
func (m *PromMetrics) BytesSent(n int)    { m.bytesSent.Add(float64(n)) }
func (m *PromMetrics) BytesReceived(n int) { m.bytesReceived.Add(float64(n)) }
func (m *PromMetrics) KeyRouted()         { m.keysRouted.Inc() }
func (m *PromMetrics) KeyDropped()        { m.keysDropped.Inc() }
func (m *PromMetrics) RawSessionStarted() { m.rawSessions.Inc() }
func (m *PromMetrics) RawSessionEnded()   { m.rawSessions.Dec() }

// noopMetrics discards everything; it is the Config default so callers
// aren't forced to stand up a Prometheus registry to use the server.
type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()  {}
func (noopMetrics) ConnectionClosed()  {}
func (noopMetrics) AuthFailure()       {}
func (noopMetrics) BytesSent(int)      {}
func (noopMetrics) BytesReceived(int)  {}
func (noopMetrics) KeyRouted()         {}
func (noopMetrics) KeyDropped()        {}
func (noopMetrics) RawSessionStarted() {}
func (noopMetrics) RawSessionEnded()   {}
