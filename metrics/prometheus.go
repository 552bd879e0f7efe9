package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	promNamespace        = "forecourt"
	promRouteSubsystem   = "route"
	promActionSubsystem  = "action"
	promServeSubsystem   = "dispatch"
	promFSCacheSubsystem = "fscache"
)

// Prometheus implements the prometheus metrics backend.
type Prometheus struct {
	routeLookupM *prometheus.HistogramVec
	actionM      *prometheus.HistogramVec
	dispatchM    *prometheus.HistogramVec
	forwardM     *prometheus.CounterVec
	errorsM      *prometheus.CounterVec
	cacheLookupM *prometheus.CounterVec

	registry *prometheus.Registry
	handler  http.Handler
}

// NewPrometheus returns a new Prometheus metric backend.
func NewPrometheus(opts Options) *Prometheus {
	namespace := promNamespace
	if opts.Prefix != "" {
		namespace = strings.TrimSuffix(opts.Prefix, ".")
	}

	if len(opts.HistogramBuckets) == 0 {
		opts.HistogramBuckets = prometheus.DefBuckets
	}

	routeLookup := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promRouteSubsystem,
		Name:      "lookup_duration_seconds",
		Help:      "Duration in seconds of a route lookup.",
		Buckets:   opts.HistogramBuckets,
	}, []string{})

	action := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promActionSubsystem,
		Name:      "duration_seconds",
		Help:      "Duration in seconds of a controller action.",
		Buckets:   opts.HistogramBuckets,
	}, []string{"controller", "action"})

	dispatch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promServeSubsystem,
		Name:      "duration_seconds",
		Help:      "Duration in seconds of a complete dispatch call.",
		Buckets:   opts.HistogramBuckets,
	}, []string{"controller", "method", "code"})

	forward := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promServeSubsystem,
		Name:      "forward_total",
		Help:      "The total of followed forwarding tokens.",
	}, []string{"controller"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promServeSubsystem,
		Name:      "error_total",
		Help:      "The total of dispatch errors by reason.",
	}, []string{"reason"})

	cacheLookup := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promFSCacheSubsystem,
		Name:      "lookup_total",
		Help:      "The total of backing file existence cache lookups.",
	}, []string{"result"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(routeLookup, action, dispatch, forward, errors, cacheLookup)

	if opts.EnableRuntimeMetrics {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &Prometheus{
		routeLookupM: routeLookup,
		actionM:      action,
		dispatchM:    dispatch,
		forwardM:     forward,
		errorsM:      errors,
		cacheLookupM: cacheLookup,
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
}

func (p *Prometheus) MeasureRouteLookup(start time.Time) {
	p.routeLookupM.WithLabelValues().Observe(time.Since(start).Seconds())
}

func (p *Prometheus) MeasureAction(controller, action string, start time.Time) {
	p.actionM.WithLabelValues(controller, action).Observe(time.Since(start).Seconds())
}

func (p *Prometheus) MeasureDispatch(controller, method string, code int, start time.Time) {
	p.dispatchM.WithLabelValues(controller, method, strconv.Itoa(code)).
		Observe(time.Since(start).Seconds())
}

func (p *Prometheus) IncForward(controller string) {
	p.forwardM.WithLabelValues(controller).Inc()
}

func (p *Prometheus) IncErrorsDispatch(reason string) {
	p.errorsM.WithLabelValues(reason).Inc()
}

func (p *Prometheus) IncCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	p.cacheLookupM.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler exposing the collected metrics.
func (p *Prometheus) Handler() http.Handler {
	return p.handler
}
