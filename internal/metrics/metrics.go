package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Accolade portal.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics.
	AuthFailuresTotal  *prometheus.CounterVec
	AuthSuccessesTotal *prometheus.CounterVec
	LoginAttemptsTotal *prometheus.CounterVec

	// Rate limiting.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Authorization gate and provisioning.
	GateDecisionsTotal *prometheus.CounterVec
	ProvisionTotal     *prometheus.CounterVec

	// Document store.
	StoreOpsTotal   *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec

	// Audit collector.
	AuditBufferSize   prometheus.Gauge
	AuditFlushesTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"kind", "method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accolade_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "method", "path_pattern"}),

		HTTPRequestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accolade_http_request_size_bytes",
			Help:    "HTTP request size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"kind", "method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accolade_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"kind", "method", "path_pattern"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		LoginAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_login_attempts_total",
			Help: "Total number of sign-in attempts by result code.",
		}, []string{"result"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"limiter_type"}),

		GateDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_gate_decisions_total",
			Help: "Total number of page authorization decisions.",
		}, []string{"outcome"}),

		ProvisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_provision_total",
			Help: "Total number of employee provisioning attempts by result.",
		}, []string{"result"}),

		StoreOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_store_operations_total",
			Help: "Total number of document store operations.",
		}, []string{"backend", "op", "status"}),

		StoreOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accolade_store_operation_duration_seconds",
			Help:    "Document store operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),

		AuditBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "accolade_audit_buffer_size",
			Help: "Current number of buffered audit entries.",
		}),

		AuditFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accolade_audit_flushes_total",
			Help: "Total number of audit collector flushes.",
		}, []string{"status"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "accolade_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	// Register all metrics.
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.LoginAttemptsTotal,
		m.RateLimitRejectionsTotal,
		m.GateDecisionsTotal,
		m.ProvisionTotal,
		m.StoreOpsTotal,
		m.StoreOpDuration,
		m.AuditBufferSize,
		m.AuditFlushesTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncLogin counts a sign-in attempt. result is "success" or a provider
// error code.
func (m *Metrics) IncLogin(result string) {
	m.LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(limiterType string) {
	m.RateLimitRejectionsTotal.WithLabelValues(limiterType).Inc()
}

// ObserveGateDecision counts a page decision.
func (m *Metrics) ObserveGateDecision(outcome string) {
	m.GateDecisionsTotal.WithLabelValues(outcome).Inc()
}

// IncProvision counts a provisioning attempt.
func (m *Metrics) IncProvision(result string) {
	m.ProvisionTotal.WithLabelValues(result).Inc()
}

// ObserveStoreOp records one document store operation.
func (m *Metrics) ObserveStoreOp(backend, op string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreOpsTotal.WithLabelValues(backend, op, status).Inc()
	m.StoreOpDuration.WithLabelValues(backend, op).Observe(seconds)
}

// SetAuditBuffer sets the audit buffer gauge.
func (m *Metrics) SetAuditBuffer(n int) {
	m.AuditBufferSize.Set(float64(n))
}

// IncAuditFlush counts an audit flush.
func (m *Metrics) IncAuditFlush(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.AuditFlushesTotal.WithLabelValues(status).Inc()
}
