// Package metrics exposes request and dataset metrics in the Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/dataset"
)

const namespace = "rentals"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	loads         *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	changes       *prometheus.CounterVec
	datasetRows   prometheus.Gauge
	datasetVer    prometheus.Gauge
	datasetLoaded prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent preparing the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_changes_total",
			Help:      "Memoized dataset versions by reload reason.",
		}, []string{"reason"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the current dataset.",
		}),
		datasetVer: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_version",
			Help:      "Version of the current dataset.",
		}),
		datasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_loaded",
			Help:      "1 when the last load attempt succeeded.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration,
		m.loads, m.loadDuration, m.changes,
		m.datasetRows, m.datasetVer, m.datasetLoaded,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLoad has the signature of dataset.Handle.OnLoad.
func (m *Metrics) ObserveLoad(d time.Duration, err error) {
	m.loadDuration.Observe(d.Seconds())
	if err != nil {
		m.loads.WithLabelValues("error").Inc()
		m.datasetLoaded.Set(0)
		return
	}
	m.loads.WithLabelValues("ok").Inc()
	m.datasetLoaded.Set(1)
}

// changeKinds bounds the reason label. Free text after a colon, as in "mqtt:upload",
// is dropped.
var changeKinds = map[string]bool{
	"startup": true, "api": true, "mqtt": true, "schedule": true, "file-change": true,
}

func changeKind(reason string) string {
	kind, _, _ := strings.Cut(reason, ":")
	if changeKinds[kind] {
		return kind
	}
	return "other"
}

func (m *Metrics) ObserveChange(c dataset.Change) {
	m.changes.WithLabelValues(changeKind(c.Reason)).Inc()
	m.datasetRows.Set(float64(c.Rows))
	m.datasetVer.Set(float64(c.Version))
}

// Track records changes until ctx is done or changes is closed.
func (m *Metrics) Track(ctx context.Context, changes <-chan dataset.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			m.ObserveChange(c)
		}
	}
}
