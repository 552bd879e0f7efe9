/*
Package forecourt implements the front controller core of an MVC web
framework: route matching with a convention based fallback, resolution of
routes into controller actions, and a dispatch loop that wraps every
action invocation with pre and post dispatch hooks and follows internal
forwarding tokens, accumulating a single response per client request.

The Run function assembles the subsystems from an Options struct and
starts serving HTTP. Applications provide their controllers through a
linker mapping backing files to registration functions, and optionally a
hooks implementation for cross cutting policy like authentication or
logging around every action.
*/
package forecourt

import (
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/dispatch"
	"github.com/veloq/forecourt/fscache"
	"github.com/veloq/forecourt/logging"
	"github.com/veloq/forecourt/metrics"
	"github.com/veloq/forecourt/routing"
	"github.com/veloq/forecourt/tracing"
)

// Options to start the front controller.
type Options struct {

	// Network address to listen on.
	Address string

	// SupportListener is the address of the auxiliary listener exposing
	// the collected metrics. Disabled when empty.
	SupportListener string

	// ControllerDir is the directory holding the controller backing
	// files.
	ControllerDir string

	// ControllerExt is the backing file extension, ".go" when empty.
	ControllerExt string

	// RoutesFile is the path of a YAML route table. When empty and no
	// Routes are given, every request is routed by the convention based
	// direct route fallback only.
	RoutesFile string

	// Routes is a predefined route table used when no RoutesFile is
	// set.
	Routes []*routing.Route

	// Linker provides the controller registration units of the
	// application's backing files.
	Linker controller.Linker

	// Hooks applied around every controller invocation.
	Hooks dispatch.Hooks

	// Bootstrapper is an opaque application context passed through the
	// hooks untouched.
	Bootstrapper interface{}

	// MaxForwards limits the dispatch loop iterations per request. Zero
	// means no limit.
	MaxForwards int

	// DefaultHTTPStatus is used when no route is found. Defaults to
	// 404.
	DefaultHTTPStatus int

	// Debug enables the controller registration integrity check after
	// loading a backing file.
	Debug bool

	// EnableFSCache enables memoizing backing file existence checks.
	EnableFSCache bool

	// FSCacheTTL bounds the staleness of the memoized existence flags.
	FSCacheTTL time.Duration

	// EnablePrometheusMetrics enables the collection of dispatch
	// metrics.
	EnablePrometheusMetrics bool

	// EnableRuntimeMetrics adds Go runtime metrics to the collection.
	EnableRuntimeMetrics bool

	// MetricsPrefix replaces the default metrics namespace.
	MetricsPrefix string

	// OpenTracing selects the tracer implementation by name ("noop" or
	// "basic").
	OpenTracing string

	// Application log settings, see the logging package.
	ApplicationLogOutput      io.Writer
	ApplicationLogPrefix      string
	ApplicationLogJSONEnabled bool

	// Access log settings, see the logging package.
	AccessLogOutput      io.Writer
	AccessLogDisabled    bool
	AccessLogJSONEnabled bool
}

func createRouter(o Options) (routing.Router, error) {
	if o.RoutesFile != "" {
		return routing.OpenTable(o.RoutesFile)
	}

	if len(o.Routes) > 0 {
		return routing.NewTableRouter(o.Routes), nil
	}

	return routing.PathRouter{}, nil
}

func createMetrics(o Options) metrics.Metrics {
	if !o.EnablePrometheusMetrics {
		return metrics.Void
	}

	return metrics.NewPrometheus(metrics.Options{
		Prefix:               o.MetricsPrefix,
		EnableRuntimeMetrics: o.EnableRuntimeMetrics,
	})
}

// New assembles a front controller from the options without starting a
// listener. It is used by Run and directly from tests or applications
// embedding the front controller into their own server.
func New(o Options) (*dispatch.FrontController, error) {
	logging.Init(logging.Options{
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogOutput:      o.ApplicationLogOutput,
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
		AccessLogOutput:           o.AccessLogOutput,
		AccessLogDisabled:         o.AccessLogDisabled,
		AccessLogJSONEnabled:      o.AccessLogJSONEnabled,
	})

	tracer, err := tracing.InitTracer(o.OpenTracing)
	if err != nil {
		return nil, err
	}

	router, err := createRouter(o)
	if err != nil {
		return nil, err
	}

	m := createMetrics(o)

	var cache fscache.Cache
	if o.EnableFSCache {
		cache = fscache.NewMemoryCache()
	}

	checker := fscache.New(fscache.Options{
		Cache:    cache,
		TTL:      o.FSCacheTTL,
		Disabled: !o.EnableFSCache,
		OnLookup: m.IncCacheLookup,
	})

	registry := controller.NewRegistry(controller.RegistryOptions{
		Linker: o.Linker,
		Exists: checker.Exists,
		Debug:  o.Debug,
	})

	if o.SupportListener != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		log.Infof("support listener on %s/metrics", o.SupportListener)
		go func() {
			if err := http.ListenAndServe(o.SupportListener, mux); err != nil {
				log.Errorf("support listener failed: %v", err)
			}
		}()
	}

	return dispatch.WithParams(dispatch.Params{
		Router:            router,
		Resolver:          dispatch.ConventionResolver{Dir: o.ControllerDir, Ext: o.ControllerExt},
		Registry:          registry,
		Hooks:             o.Hooks,
		Bootstrapper:      o.Bootstrapper,
		ControllerExists:  checker.Exists,
		MaxForwards:       o.MaxForwards,
		DefaultHTTPStatus: o.DefaultHTTPStatus,
		Metrics:           m,
		Tracer:            tracer,
	}), nil
}

// Run the front controller.
func Run(o Options) error {
	fc, err := New(o)
	if err != nil {
		return err
	}

	log.Infof("listening on %v", o.Address)
	return http.ListenAndServe(o.Address, fc)
}
