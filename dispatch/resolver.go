package dispatch

import (
	"fmt"
	"path/filepath"

	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/routing"
)

// Resolver instances map a route's controller and action identifiers into
// a dispatch token with a concrete backing file path. The naming
// convention is resolver specific.
type Resolver interface {
	Resolve(*routing.Route) (*controller.Token, error)
}

// ConventionResolver maps a controller identifier to the backing file
// <Dir>/<controller><Ext>.
type ConventionResolver struct {

	// Dir is the directory holding the controller backing files.
	Dir string

	// Ext is the backing file extension, ".go" when empty.
	Ext string
}

func (cr ConventionResolver) Resolve(r *routing.Route) (*controller.Token, error) {
	if r.Controller == "" || r.Action == "" {
		return nil, fmt.Errorf("route %q is not dispatchable: missing controller or action", r.Name)
	}

	ext := cr.Ext
	if ext == "" {
		ext = ".go"
	}

	return &controller.Token{
		Controller:  r.Controller,
		Action:      r.Action,
		BackingFile: filepath.Join(cr.Dir, r.Controller+ext),
		Params:      r.Params,
	}, nil
}

// DirectRoute builds a synthetic route from positional request parameters
// when no named route matched: the first parameter key is taken as the
// controller identifier and its value as the action, where the
// routing.NoActionValue artifact of the positional parser selects the
// "index" action. The remaining parameters become the action parameters.
//
// The synthetic route is resolved through the given resolver and returned
// with its token only when the backing file of the target controller
// actually exists. Otherwise nil is returned, signaling that no direct
// route is possible and the caller should fall back to its not-found
// handling. Empty parameters return nil without consulting the resolver.
func DirectRoute(params routing.Params, resolver Resolver, exists func(string) bool) (*routing.Route, *controller.Token) {
	if len(params) == 0 {
		return nil, nil
	}

	first := params[0]
	var action string
	if first.Value == routing.NoActionValue {
		action = "index"
	} else if s, ok := first.Value.(string); ok {
		action = s
	} else {
		action = fmt.Sprint(first.Value)
	}

	route := &routing.Route{
		Name:       "direct",
		Controller: first.Key,
		Action:     action,
		Params:     params.Without(first.Key),
	}

	token, err := resolver.Resolve(route)
	if err != nil {
		return nil, nil
	}

	if !exists(token.BackingFile) {
		return nil, nil
	}

	return route, token
}
