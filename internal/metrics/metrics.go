// Package metrics exposes Prometheus counters for the API and the ingestion handshake.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the dispatcher and HTTP middleware report into.
type Recorder interface {
	RecordDispatch(success bool, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordStatusTransition(status string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	dispatchTotal   *prometheus.CounterVec
	dispatchLatency prometheus.Histogram
	httpStatus      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_ingestion_dispatch_total",
			Help: "Ingestion trigger calls by outcome.",
		}, []string{"outcome"}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docflow_ingestion_dispatch_seconds",
			Help:    "Latency of calls to the ingestion service.",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docflow_document_status_total",
			Help: "Document status transitions by target status.",
		}, []string{"status"}),
	}

	reg.MustRegister(c.dispatchTotal, c.dispatchLatency, c.httpStatus, c.transitions)
	return c
}

func (c *Collector) RecordDispatch(success bool, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.dispatchTotal.WithLabelValues(outcome).Inc()
	c.dispatchLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordStatusTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

// Handler serves the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordDispatch(bool, time.Duration) {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordStatusTransition(string)      {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
