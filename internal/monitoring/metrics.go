package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the join outcome dimension.
const (
	JoinOK       = "ok"
	JoinNoThread = "no_thread"
	JoinSelf     = "self"
	JoinDetached = "detached"
)

// Label values for the descriptor free path dimension.
const (
	FreeByJoiner  = "joiner"
	FreeByCascade = "cascade"
)

// Metrics holds all Prometheus metrics for one kernel instance.
//
// Each instance carries its own registry so parallel kernels (tests,
// embedded simulators) never fight over collector registration.
type Metrics struct {
	registry *prometheus.Registry

	// Thread lifecycle
	ThreadsCreated  prometheus.Counter
	ThreadsExited   prometheus.Counter
	ThreadsDetached prometheus.Counter
	Joins           *prometheus.CounterVec
	DescriptorFrees *prometheus.CounterVec
	JoinWait        prometheus.Histogram

	// Process lifecycle
	ProcessesSpawned prometheus.Counter
	ProcessesReaped  prometheus.Counter
	Cascades         prometheus.Counter
	CascadeDuration  prometheus.Histogram

	// Live state
	ThreadsLive   prometheus.Gauge
	ProcessesLive prometheus.Gauge
	StreamsOpen   prometheus.Gauge

	// API surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSConnections   prometheus.Gauge
	WSEvents        prometheus.Counter
}

// NewMetrics creates a metrics collector backed by a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	start := time.Now()

	m := &Metrics{
		registry: registry,

		ThreadsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_threads_created_total",
			Help: "Total number of thread descriptors created",
		}),
		ThreadsExited: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_threads_exited_total",
			Help: "Total number of threads that called exit",
		}),
		ThreadsDetached: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_threads_detached_total",
			Help: "Total number of successful detaches",
		}),
		Joins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_joins_total",
				Help: "Join attempts by outcome",
			},
			[]string{"outcome"},
		),
		DescriptorFrees: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_descriptor_frees_total",
				Help: "Thread descriptor frees by path",
			},
			[]string{"path"},
		),
		JoinWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kernel_join_wait_seconds",
			Help:    "Time joiners spent blocked on the exit condition",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		ProcessesSpawned: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_processes_spawned_total",
			Help: "Total number of processes spawned",
		}),
		ProcessesReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_processes_reaped_total",
			Help: "Total number of zombie processes reaped by their parent",
		}),
		Cascades: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_cascades_total",
			Help: "Total number of process termination cascades",
		}),
		CascadeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kernel_cascade_duration_seconds",
			Help:    "Termination cascade duration",
			Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
		}),

		ThreadsLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_threads_live",
			Help: "Thread descriptor slots currently allocated",
		}),
		ProcessesLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_processes_live",
			Help: "Process descriptor slots currently allocated",
		}),
		StreamsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_streams_open",
			Help: "Open stream objects across all fd tables",
		}),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kernel_ws_connections",
			Help: "Number of active WebSocket event subscribers",
		}),
		WSEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_ws_events_total",
			Help: "Total number of events streamed over WebSocket",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "kernel_uptime_seconds",
		Help: "Seconds since the kernel booted",
	}, func() float64 {
		return time.Since(start).Seconds()
	})

	return m
}

// Registry exposes the backing registry for scrape handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the scrape handler for this kernel's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordThreadCreated records a descriptor allocation.
func (m *Metrics) RecordThreadCreated() { m.ThreadsCreated.Inc() }

// RecordThreadExited records a thread exit.
func (m *Metrics) RecordThreadExited() { m.ThreadsExited.Inc() }

// RecordThreadDetached records a successful detach.
func (m *Metrics) RecordThreadDetached() { m.ThreadsDetached.Inc() }

// RecordJoin records a join attempt and, for attempts that blocked, the
// time spent waiting.
func (m *Metrics) RecordJoin(outcome string, wait time.Duration) {
	m.Joins.WithLabelValues(outcome).Inc()
	if wait > 0 {
		m.JoinWait.Observe(wait.Seconds())
	}
}

// RecordFree records a descriptor free on the given path.
func (m *Metrics) RecordFree(path string) {
	m.DescriptorFrees.WithLabelValues(path).Inc()
}

// RecordProcessSpawned records a process creation.
func (m *Metrics) RecordProcessSpawned() { m.ProcessesSpawned.Inc() }

// RecordProcessReaped records a zombie collection by its parent.
func (m *Metrics) RecordProcessReaped() { m.ProcessesReaped.Inc() }

// RecordCascade records one termination cascade and its duration.
func (m *Metrics) RecordCascade(d time.Duration) {
	m.Cascades.Inc()
	m.CascadeDuration.Observe(d.Seconds())
}

// SetThreadsLive sets the live thread descriptor gauge.
func (m *Metrics) SetThreadsLive(n int) { m.ThreadsLive.Set(float64(n)) }

// SetProcessesLive sets the live process descriptor gauge.
func (m *Metrics) SetProcessesLive(n int) { m.ProcessesLive.Set(float64(n)) }

// SetStreamsOpen sets the open stream gauge.
func (m *Metrics) SetStreamsOpen(n int) { m.StreamsOpen.Set(float64(n)) }

// RecordHTTPRequest records an API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncWSConnections increments the WebSocket subscriber gauge.
func (m *Metrics) IncWSConnections() { m.WSConnections.Inc() }

// DecWSConnections decrements the WebSocket subscriber gauge.
func (m *Metrics) DecWSConnections() { m.WSConnections.Dec() }

// RecordWSEvent records one event delivered to a subscriber.
func (m *Metrics) RecordWSEvent() { m.WSEvents.Inc() }
