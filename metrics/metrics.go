/*
Package metrics implements collection of the performance metrics of the
front controller: the time spent with route lookup, the duration of the
controller actions and of whole dispatch calls, the number of internal
forwards, the dispatch error counts and the hit rate of the backing file
existence cache.

The metrics are collected with Prometheus. To expose them, mount the
Handler of the collecting instance on a support listener.
*/
package metrics

import (
	"net/http"
	"time"
)

// Metrics collects the measurements of the dispatch path. The Void
// implementation discards everything and is used when metrics are
// disabled.
type Metrics interface {

	// MeasureRouteLookup measures the duration of matching a request to
	// a route, including the direct route fallback.
	MeasureRouteLookup(start time.Time)

	// MeasureAction measures the duration of a single controller action
	// invocation.
	MeasureAction(controller, action string, start time.Time)

	// MeasureDispatch measures a complete dispatch call, labeled by the
	// initially dispatched controller, the request method and the
	// resulting status code.
	MeasureDispatch(controller, method string, code int, start time.Time)

	// IncForward counts a followed forwarding token.
	IncForward(controller string)

	// IncErrorsDispatch counts dispatch failures by reason.
	IncErrorsDispatch(reason string)

	// IncCacheLookup counts backing file existence cache lookups.
	IncCacheLookup(hit bool)

	// Handler exposes the collected metrics.
	Handler() http.Handler
}

// Options for initializing metrics collection.
type Options struct {

	// Common prefix for the keys of the different collected metrics.
	Prefix string

	// Buckets used for the duration histograms.
	HistogramBuckets []float64

	// If set, Go runtime and process metrics are collected in addition
	// to the dispatch metrics.
	EnableRuntimeMetrics bool
}

// Void discards all measurements.
var Void Metrics = &voidMetrics{}

type voidMetrics struct{}

func (voidMetrics) MeasureRouteLookup(time.Time)                   {}
func (voidMetrics) MeasureAction(string, string, time.Time)        {}
func (voidMetrics) MeasureDispatch(string, string, int, time.Time) {}
func (voidMetrics) IncForward(string)                              {}
func (voidMetrics) IncErrorsDispatch(string)                       {}
func (voidMetrics) IncCacheLookup(bool)                            {}
func (voidMetrics) Handler() http.Handler                          { return http.NotFoundHandler() }
