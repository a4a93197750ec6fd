package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Shell metrics
	CommandsTotal      *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
	AuthDenials        *prometheus.CounterVec
	CollaboratorCalls  *prometheus.CounterVec
	CollaboratorTiming *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON stats endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON stats endpoint.
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	Commands       int64   `json:"commands"`
	Denials        int64   `json:"denials"`
	ActiveSessions int64   `json:"active_sessions"`
	ActiveSockets  int64   `json:"active_sockets"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

var buckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// NewMetrics creates a metrics collector registered on reg. A nil reg means
// the process-wide default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fastshell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: buckets,
			},
			[]string{"method", "path"},
		),

		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_commands_total",
				Help: "Commands dispatched by shell sessions",
			},
			[]string{"command", "status"},
		),
		CommandDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fastshell_command_duration_seconds",
				Help:    "Time from dispatch until a command's synchronous part returns",
				Buckets: buckets,
			},
			[]string{"command"},
		),
		AuthDenials: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_authorization_denials_total",
				Help: "Commands refused for insufficient permission level",
			},
			[]string{"command", "level"},
		),
		CollaboratorCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_collaborator_calls_total",
				Help: "Calls to account and project backends",
			},
			[]string{"op", "status"},
		),
		CollaboratorTiming: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fastshell_collaborator_duration_seconds",
				Help:    "Backend call duration in seconds",
				Buckets: buckets,
			},
			[]string{"op"},
		),

		ServiceCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_service_calls_total",
				Help: "Total number of service tool executions",
			},
			[]string{"service", "tool", "status"},
		),
		ServiceDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fastshell_service_duration_seconds",
				Help:    "Service tool duration in seconds",
				Buckets: buckets,
			},
			[]string{"service", "tool"},
		),

		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fastshell_sessions_active",
				Help: "Number of live shell sessions",
			},
		),
		SessionsCreated: f.NewCounter(
			prometheus.CounterOpts{
				Name: "fastshell_sessions_created_total",
				Help: "Total number of shell sessions created",
			},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fastshell_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fastshell_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fastshell_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request. A negative duration counts the
// request without observing its latency.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	if duration >= 0 {
		m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	}

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// CommandFinished records a dispatched command line.
func (m *Metrics) CommandFinished(command, outcome string, elapsed time.Duration) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())

	m.mu.Lock()
	m.snapshot.Commands++
	m.mu.Unlock()
}

// AuthorizationDenied records a refused command.
func (m *Metrics) AuthorizationDenied(command, level string) {
	m.AuthDenials.WithLabelValues(command, level).Inc()

	m.mu.Lock()
	m.snapshot.Denials++
	m.mu.Unlock()
}

// CollaboratorCall records a backend call made on behalf of a command.
func (m *Metrics) CollaboratorCall(op, outcome string, elapsed time.Duration) {
	m.CollaboratorCalls.WithLabelValues(op, outcome).Inc()
	m.CollaboratorTiming.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordServiceCall records a service tool execution
func (m *Metrics) RecordServiceCall(service, tool, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, tool, status).Inc()
	m.ServiceDuration.WithLabelValues(service, tool).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SessionOpened counts a new shell session.
func (m *Metrics) SessionOpened() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionClosed counts a shell session going away.
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSockets++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSockets--
	m.mu.Unlock()
}

// Snapshot returns the current JSON stats.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
