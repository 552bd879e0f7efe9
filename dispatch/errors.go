package dispatch

import "fmt"

type (
	forwardLimitError string
	routeLookupError  string
)

func (e forwardLimitError) Error() string { return string(e) }
func (e routeLookupError) Error() string  { return string(e) }

const (
	// ErrMaxForwards is returned when the optional forward limit was
	// exceeded by a forwarding chain.
	ErrMaxForwards = forwardLimitError("max forwards reached")

	errRouteLookup = routeLookupError("route lookup failed")
)

// InvalidActionError is returned when the action of a dispatch token is
// not callable on the resolved controller.
type InvalidActionError struct {
	Controller string
	Action     string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("action %q is not callable on controller %q", e.Action, e.Controller)
}
