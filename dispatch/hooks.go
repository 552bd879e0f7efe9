package dispatch

import "github.com/veloq/forecourt/controller"

// Hooks let the embedding application apply cross cutting policy around
// every controller invocation of the dispatch loop, without modifying the
// controllers. All methods are called on the goroutine running the
// dispatch.
type Hooks interface {

	// PreDispatch runs at the start of every loop iteration, before the
	// controller of the current token is instantiated. Returning false
	// vetoes the iteration: no controller is created, the forwarding
	// token is cleared, and PostDispatch is still called with nil. The
	// response accumulated so far is retained.
	PreDispatch(controller.Context) bool

	// PostDispatch runs at the end of every loop iteration with the
	// forwarding token produced by the controller, or nil. The returned
	// token, which may substitute the candidate, continues the loop;
	// nil terminates it.
	PostDispatch(ctx controller.Context, next *controller.Token) *controller.Token

	// FilterResponse runs once after the loop terminated, on the
	// accumulated response.
	FilterResponse(controller.Context)
}

// NoopHooks is the default Hooks implementation: approve every iteration,
// pass forwarding tokens through unchanged, leave the response as is.
type NoopHooks struct{}

func (NoopHooks) PreDispatch(controller.Context) bool { return true }

func (NoopHooks) PostDispatch(_ controller.Context, next *controller.Token) *controller.Token {
	return next
}

func (NoopHooks) FilterResponse(controller.Context) {}
