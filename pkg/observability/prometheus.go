package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface on a private registry.
// A collection is a batch job, so the registry is written to a node_exporter
// textfile at the end of the run instead of being scraped.
type PrometheusHooks struct {
	registry *prometheus.Registry

	seeds      *prometheus.CounterVec
	candidates *prometheus.CounterVec
	candidateT prometheus.Histogram
	discovered prometheus.Counter
	exports    *prometheus.CounterVec
	cache      *prometheus.CounterVec
	requests   *prometheus.CounterVec
	requestT   *prometheus.HistogramVec
	httpErrors *prometheus.CounterVec
}

// NewPrometheusHooks creates hooks with all collectors registered.
func NewPrometheusHooks() *PrometheusHooks {
	h := &PrometheusHooks{
		registry: prometheus.NewRegistry(),
		seeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_seeds_total",
			Help: "Seed keywords searched, by result.",
		}, []string{"result"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_candidates_total",
			Help: "Candidates processed, by outcome.",
		}, []string{"outcome"}),
		candidateT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stackscout_candidate_duration_seconds",
			Help:    "Time spent enriching one candidate.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stackscout_candidates_discovered_total",
			Help: "Unique candidates added during seeding.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_exports_total",
			Help: "Export artifacts written, by format and result.",
		}, []string{"format", "result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_cache_operations_total",
			Help: "Cache lookups and writes, by namespace and operation.",
		}, []string{"namespace", "op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_http_requests_total",
			Help: "Upstream HTTP responses, by host and status.",
		}, []string{"host", "status"}),
		requestT: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stackscout_http_request_duration_seconds",
			Help:    "Upstream HTTP latency, by host.",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stackscout_http_errors_total",
			Help: "Upstream HTTP transport failures, by host.",
		}, []string{"host"}),
	}
	h.registry.MustRegister(h.seeds, h.candidates, h.candidateT, h.discovered,
		h.exports, h.cache, h.requests, h.requestT, h.httpErrors)
	return h
}

// Registry exposes the underlying registry.
func (h *PrometheusHooks) Registry() *prometheus.Registry { return h.registry }

// WriteTextfile writes the current values in the text exposition format.
func (h *PrometheusHooks) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.registry)
}

func (h *PrometheusHooks) OnSeedStart(context.Context, string) {}

func (h *PrometheusHooks) OnSeedComplete(_ context.Context, _ string, _, added int, err error) {
	h.seeds.WithLabelValues(result(err)).Inc()
	h.discovered.Add(float64(added))
}

func (h *PrometheusHooks) OnCandidateStart(context.Context, string) {}

func (h *PrometheusHooks) OnCandidateComplete(_ context.Context, _ string, outcome string, d time.Duration) {
	h.candidates.WithLabelValues(outcome).Inc()
	h.candidateT.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnExport(_ context.Context, format string, _ int, err error) {
	h.exports.WithLabelValues(format, result(err)).Inc()
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, ns string) {
	h.cache.WithLabelValues(ns, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, ns string) {
	h.cache.WithLabelValues(ns, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, ns string, _ int) {
	h.cache.WithLabelValues(ns, "set").Inc()
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.requests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.requestT.WithLabelValues(host).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(host).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ CollectHooks = (*PrometheusHooks)(nil)
	_ CacheHooks   = (*PrometheusHooks)(nil)
	_ HTTPHooks    = (*PrometheusHooks)(nil)
)
