// Package controller defines the contract between the front controller and
// the application controllers: the dispatch token, the controller
// interface with its lifecycle hooks, and the registry used to resolve
// controller identifiers into instances.
//
// The Context interface is implemented by the dispatch package. Keeping the
// contract in this leaf package lets controller implementations avoid a
// dependency on the dispatch machinery.
package controller

import (
	"net/http"

	"github.com/veloq/forecourt/logging"
	"github.com/veloq/forecourt/routing"
)

// Token identifies a single controller action invocation: the controller
// and action names, the backing file expected to register the controller,
// and the parameters passed to the action. Tokens are not modified after
// construction; forwarding to another action creates a new token.
type Token struct {
	Controller  string
	Action      string
	BackingFile string
	Params      routing.Params
}

// ActionFunc is an action method of a controller. It receives the dispatch
// context and the parameter list of the token that selected the action.
type ActionFunc func(ctx Context, params routing.Params)

// Controller instances are created per dispatch loop iteration and
// discarded after their post dispatch hook returned. They are never reused,
// even when a forwarding chain targets the same controller twice.
type Controller interface {

	// PreDispatch runs before the action. Returning false skips the
	// action; PostDispatch still runs.
	PreDispatch(Context) bool

	// Action returns the named action method, or nil when the controller
	// does not implement it.
	Action(name string) ActionFunc

	// PostDispatch runs after the action, also when the action was
	// skipped. A non-nil token continues the dispatch loop with a fresh
	// controller instance.
	PostDispatch(Context) *Token
}

// Base provides the default controller behavior: approve dispatch, no
// actions, no forwarding. Controllers embed it and override what they
// need.
type Base struct{}

func (Base) PreDispatch(Context) bool    { return true }
func (Base) Action(string) ActionFunc    { return nil }
func (Base) PostDispatch(Context) *Token { return nil }

// Response is the single mutable response accumulator of one dispatch
// call. Every loop iteration and hook writes to the same instance.
type Response interface {
	Header() http.Header
	StatusCode() int
	SetStatusCode(int)
	Write([]byte) (int, error)
	WriteString(string) (int, error)
}

// Context provides the controllers and hooks access to the state of the
// current dispatch call.
type Context interface {

	// The incoming client request.
	Request() *http.Request

	// The response accumulator shared by all iterations of the dispatch
	// loop.
	Response() Response

	// The route the dispatch was started from. Read-only during
	// dispatch.
	Route() *routing.Route

	// The token of the current loop iteration.
	Token() *Token

	// The opaque application context passed to Dispatch. The front
	// controller never touches it.
	Bootstrapper() interface{}

	// StateBag carries values between hooks and loop iterations of the
	// same dispatch call.
	StateBag() map[string]interface{}

	// Logger used for the current request.
	Logger() logging.Logger

	// Forward resolves a controller and action into a token that can be
	// returned from a post dispatch hook to continue the loop.
	Forward(controller, action string, params routing.Params) (*Token, error)
}
