package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ebarangay"

// Metrics owns a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	submissions prometheus.Counter
	uploads     *prometheus.CounterVec
	wsClients   prometheus.Gauge
}

func New() *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "request_transitions_total"}, []string{"from", "to"})
	submissions := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "requests_submitted_total"})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "uploads_total"}, []string{"kind", "result"})
	wsClients := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "event_stream_clients"})
	r.MustRegister(transitions, submissions, uploads, wsClients)

	return &Metrics{
		registry:    r,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		transitions: transitions,
		submissions: submissions,
		uploads:     uploads,
		wsClients:   wsClients,
	}
}

func (m *Metrics) RequestSubmitted() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

func (m *Metrics) RequestTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Upload(kind, result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.wsClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.wsClients.Dec()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			// unmatched paths would explode label cardinality
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
