package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP, cache and domain metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	findings        *prometheus.GaugeVec
	validationRuns  *prometheus.HistogramVec
	assignmentOps   *prometheus.CounterVec
	unexpected      *prometheus.CounterVec
	sessionCloses   *prometheus.CounterVec
	sessionOpens    prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_cache_lookups_total",
		Help: "Audit cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_cache_latency_seconds",
		Help:    "Latency of audit cache operations",
		Buckets: prometheus.DefBuckets,
	})

	findings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assignment_findings",
		Help: "Assignment integrity findings by type as of the last full validation sweep",
	}, []string{"type"})

	validationRuns := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_validation_duration_seconds",
		Help:    "Duration of assignment validation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	assignmentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_mutations_total",
		Help: "Assignment store mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	unexpected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_unexpected_participants_total",
		Help: "Attendance records written for participants outside the expected set",
	}, []string{"kind"})

	sessionCloses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_closes_total",
		Help: "Sessions closed by trigger",
	}, []string{"trigger"})

	sessionOpens := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_opens_total",
		Help: "Sessions transitioned from unopened to open",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, findings, validationRuns,
		assignmentOps, unexpected, sessionCloses, sessionOpens, goroutines)

	for _, t := range models.FindingTypes {
		findings.WithLabelValues(string(t)).Set(0)
	}

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		findings:        findings,
		validationRuns:  validationRuns,
		assignmentOps:   assignmentOps,
		unexpected:      unexpected,
		sessionCloses:   sessionCloses,
		sessionOpens:    sessionOpens,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// SetFindingTotals publishes the per-type totals of a full sweep. Types absent
// from totals are reset to zero.
func (m *MetricsService) SetFindingTotals(totals map[models.FindingType]int) {
	if m == nil {
		return
	}
	for _, t := range models.FindingTypes {
		m.findings.WithLabelValues(string(t)).Set(float64(totals[t]))
	}
}

// ObserveValidation records how long a validation run took.
func (m *MetricsService) ObserveValidation(scope string, duration time.Duration) {
	if m == nil {
		return
	}
	m.validationRuns.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordAssignmentMutation counts an assignment store write.
func (m *MetricsService) RecordAssignmentMutation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.assignmentOps.WithLabelValues(operation, outcome).Inc()
}

// RecordUnexpectedParticipant counts a soft unexpected-participant warning.
func (m *MetricsService) RecordUnexpectedParticipant(kind string) {
	if m == nil {
		return
	}
	m.unexpected.WithLabelValues(kind).Inc()
}

// RecordSessionOpen counts an unopened to open transition.
func (m *MetricsService) RecordSessionOpen() {
	if m == nil {
		return
	}
	m.sessionOpens.Inc()
}

// RecordSessionClose counts a session close.
func (m *MetricsService) RecordSessionClose(trigger models.CloseTrigger) {
	if m == nil {
		return
	}
	m.sessionCloses.WithLabelValues(string(trigger)).Inc()
}
