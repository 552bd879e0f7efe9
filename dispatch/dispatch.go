// Package dispatch implements the front controller of the framework: the
// single entry point that wraps every controller invocation with cross
// cutting pre and post dispatch hooks, and the dispatch loop that follows
// forwarding tokens produced by the invoked controllers until none
// remains.
//
// One client visible request maps to one Dispatch call with one response
// accumulator, no matter how many internal forwards the loop follows. The
// loop has no cycle detection: termination relies on the hooks and
// controllers eventually producing no forwarding token. An optional
// forward limit can be configured as a safety valve.
package dispatch

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	ot "github.com/opentracing/opentracing-go"
	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/fscache"
	"github.com/veloq/forecourt/logging"
	"github.com/veloq/forecourt/metrics"
	"github.com/veloq/forecourt/routing"
	"github.com/veloq/forecourt/tracing"
)

// Params for initializing a front controller.
type Params struct {

	// Router matches incoming requests to routes. Borrowed for the
	// duration of the dispatch calls, not owned.
	Router routing.Router

	// Resolver maps routes and forward targets to dispatch tokens.
	Resolver Resolver

	// Registry resolves controller identifiers to instances.
	Registry *controller.Registry

	// Hooks applied around every controller invocation. Defaults to
	// NoopHooks.
	Hooks Hooks

	// Bootstrapper is an opaque application context passed through the
	// hooks untouched.
	Bootstrapper interface{}

	// ControllerExists checks backing file existence for the direct
	// route fallback. Defaults to an uncached filesystem check; wire the
	// fscache checker here to share its memoization.
	ControllerExists func(path string) bool

	// MaxForwards limits the number of loop iterations of one dispatch
	// call. Zero means no limit, which matches the behavior of the
	// original dispatch protocol.
	MaxForwards int

	// DefaultHTTPStatus is the status used when no route is found for a
	// request. Defaults to 404.
	DefaultHTTPStatus int

	// Metrics defaults to metrics.Void.
	Metrics metrics.Metrics

	// Log defaults to the logging package default.
	Log logging.Logger

	// Tracer defaults to the noop tracer.
	Tracer ot.Tracer
}

// FrontController owns the dispatch loop. It serves as an http.Handler
// for the full request lifecycle, or the Dispatch method can be called
// directly with an already resolved token.
type FrontController struct {
	router            routing.Router
	resolver          Resolver
	registry          *controller.Registry
	hooks             Hooks
	bootstrapper      interface{}
	exists            func(string) bool
	maxForwards       int
	defaultHTTPStatus int
	metrics           metrics.Metrics
	log               logging.Logger
	tracer            ot.Tracer
}

// WithParams returns an initialized front controller.
func WithParams(p Params) *FrontController {
	if p.Hooks == nil {
		p.Hooks = NoopHooks{}
	}

	if p.ControllerExists == nil {
		p.ControllerExists = fscache.New(fscache.Options{Disabled: true}).Exists
	}

	if p.DefaultHTTPStatus < http.StatusContinue || p.DefaultHTTPStatus > http.StatusNetworkAuthenticationRequired {
		p.DefaultHTTPStatus = http.StatusNotFound
	}

	if p.Metrics == nil {
		p.Metrics = metrics.Void
	}

	if p.Log == nil {
		p.Log = logging.New()
	}

	if p.Tracer == nil {
		p.Tracer = &ot.NoopTracer{}
	}

	return &FrontController{
		router:            p.Router,
		resolver:          p.Resolver,
		registry:          p.Registry,
		hooks:             p.Hooks,
		bootstrapper:      p.Bootstrapper,
		exists:            p.ControllerExists,
		maxForwards:       p.MaxForwards,
		defaultHTTPStatus: p.DefaultHTTPStatus,
		metrics:           p.Metrics,
		log:               p.Log,
		tracer:            p.Tracer,
	}
}

// Dispatch runs the dispatch loop for an already resolved token and
// returns the accumulated response. The route is the one the token was
// resolved from and is read-only during dispatch; it may be nil for
// tokens constructed directly.
//
// Errors from controller code and hooks are not caught: they abort the
// loop and propagate to the caller unmodified, and no response is
// returned. The caller is responsible for mapping a failure to a client
// visible error reply.
func (fc *FrontController) Dispatch(r *http.Request, route *routing.Route, token *controller.Token) (*Response, error) {
	ctx := newContext(fc, r, fc.bootstrapper, route)
	ctx.startServe = time.Now()

	if err := fc.run(ctx, token); err != nil {
		return nil, err
	}

	fc.hooks.FilterResponse(ctx)
	return ctx.response, nil
}

// run is the dispatch loop. Each iteration consumes the current token and
// may produce the next one through the post dispatch hooks.
func (fc *FrontController) run(ctx *context, token *controller.Token) error {
	for token != nil {
		if fc.maxForwards > 0 && ctx.iterations >= fc.maxForwards {
			return ErrMaxForwards
		}

		ctx.iterations++
		ctx.token = token

		next, err := fc.dispatchOne(ctx, token)
		if err != nil {
			return err
		}

		token = fc.hooks.PostDispatch(ctx, next)
		if token != nil {
			ctx.forwards++
			fc.metrics.IncForward(token.Controller)
		}
	}

	return nil
}

// dispatchOne runs one loop iteration for the given token and returns the
// forwarding token produced by the controller's post dispatch hook, if
// any.
func (fc *FrontController) dispatchOne(ctx *context, token *controller.Token) (*controller.Token, error) {
	if !fc.hooks.PreDispatch(ctx) {
		// the veto clears the token: without it, re-dispatching the
		// same token would loop forever
		fc.log.Debugf("dispatch of %s.%s vetoed", token.Controller, token.Action)
		return nil, nil
	}

	span := tracing.CreateSpan("dispatch_iteration", ctx.request.Context(), fc.tracer)
	span.SetTag("controller", token.Controller)
	span.SetTag("action", token.Action)
	defer span.Finish()

	inst, err := fc.registry.Instance(token)
	if err != nil {
		return nil, err
	}

	action := inst.Action(token.Action)
	if action == nil {
		return nil, &InvalidActionError{Controller: token.Controller, Action: token.Action}
	}

	if inst.PreDispatch(ctx) {
		start := time.Now()
		action(ctx, token.Params)
		fc.metrics.MeasureAction(token.Controller, token.Action, start)
	}

	// the post dispatch hook runs also for skipped actions and may
	// still forward
	return inst.PostDispatch(ctx), nil
}

// route matches the request to a route and resolves its token, attempting
// the direct route fallback when no named route matched.
func (fc *FrontController) route(r *http.Request) (*routing.Route, *controller.Token, error) {
	route, params, err := fc.router.Route(r)
	if err != nil {
		return nil, nil, err
	}

	if route != nil {
		token, err := fc.resolver.Resolve(route)
		return route, token, err
	}

	route, token := DirectRoute(params, fc.resolver, fc.exists)
	if route == nil {
		return nil, nil, errRouteLookup
	}

	return route, token, nil
}

func (fc *FrontController) sendError(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

// ServeHTTP implements the full request lifecycle: route lookup with the
// direct route fallback, token resolution, the dispatch loop, and writing
// the accumulated response. Resolution failures map to the default HTTP
// status, all other dispatch errors to 500.
func (fc *FrontController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	span := tracing.CreateSpan("dispatch", r.Context(), fc.tracer)
	span.SetTag("http.method", r.Method)
	span.SetTag("http.path", r.URL.Path)
	defer span.Finish()

	r = r.WithContext(ot.ContextWithSpan(r.Context(), span))
	flowID := uuid.NewString()

	lookupStart := time.Now()
	route, token, err := fc.route(r)
	fc.metrics.MeasureRouteLookup(lookupStart)

	if err != nil {
		code := fc.defaultHTTPStatus
		switch {
		case err == errRouteLookup:
			fc.metrics.IncErrorsDispatch("route_lookup")
			fc.log.Debugf("could not find a route for %v", r.URL)
		default:
			fc.metrics.IncErrorsDispatch("resolve")
			fc.log.Errorf("error while resolving route for %v: %v", r.URL, err)
		}

		span.SetTag("error", true)
		fc.sendError(w, code)
		fc.logAccess(r, nil, code, 0, 0, flowID, start)
		return
	}

	ctx := newContext(fc, r, fc.bootstrapper, route)
	ctx.startServe = start
	ctx.flowID = flowID

	if err := fc.run(ctx, token); err != nil {
		span.SetTag("error", true)
		code := http.StatusInternalServerError
		var (
			invalidController *controller.InvalidControllerError
			invalidAction     *InvalidActionError
		)

		switch {
		case errors.As(err, &invalidController):
			code = fc.defaultHTTPStatus
			fc.metrics.IncErrorsDispatch("invalid_controller")
		case errors.As(err, &invalidAction):
			code = fc.defaultHTTPStatus
			fc.metrics.IncErrorsDispatch("invalid_action")
		case err == ErrMaxForwards:
			fc.metrics.IncErrorsDispatch("max_forwards")
		default:
			fc.metrics.IncErrorsDispatch("application")
		}

		fc.log.Errorf("error while dispatching %s.%s, status code %d: %v", token.Controller, token.Action, code, err)
		fc.sendError(w, code)
		fc.logAccess(r, token, code, 0, ctx.forwards, flowID, start)
		return
	}

	fc.hooks.FilterResponse(ctx)

	if err := ctx.response.WriteTo(w); err != nil {
		fc.log.Errorf("error while writing the response: %v", err)
	}

	fc.metrics.MeasureDispatch(token.Controller, r.Method, ctx.response.StatusCode(), start)
	fc.logAccess(r, token, ctx.response.StatusCode(), ctx.response.Size(), ctx.forwards, flowID, start)
}

func (fc *FrontController) logAccess(
	r *http.Request,
	token *controller.Token,
	code, size, forwards int,
	flowID string,
	start time.Time,
) {
	entry := &logging.AccessEntry{
		Request:      r,
		StatusCode:   code,
		ResponseSize: size,
		Forwards:     forwards,
		FlowID:       flowID,
		RequestTime:  start,
		Duration:     time.Since(start),
	}

	if token != nil {
		entry.Controller = token.Controller
		entry.Action = token.Action
	}

	logging.LogAccess(entry)
}
