package metrics

import (
	"net/http"
	"strconv"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ application.Metrics = (*Recorder)(nil)

// Recorder implements application.Metrics using Prometheus. Every Recorder
// owns its registry.
type Recorder struct {
	reg *prometheus.Registry

	fetches      *prometheus.CounterVec
	fetchLatency prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	batches      prometheus.Counter
	failures     *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricer_quote_fetch_total",
				Help: "Quote requests sent to the provider by outcome",
			},
			[]string{"outcome"},
		),
		fetchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricer_quote_fetch_duration_seconds",
				Help:    "Provider round trip duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricer_cache_lookups_total",
				Help: "Price cache lookups by result",
			},
			[]string{"result"},
		),
		batches: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pricer_refresh_batches_total",
				Help: "Completed refresh batches",
			},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricer_refresh_failures_total",
				Help: "Per-symbol refresh failures by error kind",
			},
			[]string{"kind"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricer_last_price",
				Help: "Last fetched price for a symbol",
			},
			[]string{"symbol"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

func (r *Recorder) ObserveFetch(_ string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	r.fetches.WithLabelValues(outcome).Inc()
	r.fetchLatency.Observe(d.Seconds())
}

func (r *Recorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveBatch(report domain.RefreshReport) {
	r.batches.Inc()
	for _, err := range report.Failures {
		kind := string(domain.KindOf(err))
		if kind == "" {
			kind = "unknown"
		}
		r.failures.WithLabelValues(kind).Inc()
	}
	for _, q := range report.Fetched {
		r.lastPrice.WithLabelValues(string(q.Symbol)).Set(q.Price)
	}
}

// ObserveHTTP records one served request. route should be the templated
// pattern to keep label cardinality low.
func (r *Recorder) ObserveHTTP(route, method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
