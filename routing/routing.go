// Package routing contains the route model of the front controller and the
// router implementations that produce routes from incoming requests.
//
// A route carries the controller and action identifiers together with the
// bound parameter values. Parameters are ordered, because the direct route
// fallback interprets the first parameter as the controller identifier.
// Routers either return a matched route, or, when no named route matched,
// the positional parameters parsed from the request path, which the front
// controller may turn into a direct route.
package routing

import "net/http"

// NoActionValue is the parameter value set by the positional parameter
// parsing when a key appears without a value in the request path. The
// direct route resolution interprets it as "no explicit action given".
const NoActionValue = 1

// Param is a single route parameter. The value is either a string bound
// from the request path or route definition, or the int NoActionValue
// artifact of the positional parser.
type Param struct {
	Key   string
	Value interface{}
}

// Params is an ordered list of route parameters. The order is significant
// for the direct route fallback only; lookups by key take the first match.
type Params []Param

// Get returns the value of the first parameter with the given key.
func (p Params) Get(key string) (interface{}, bool) {
	for _, pi := range p {
		if pi.Key == key {
			return pi.Value, true
		}
	}

	return nil, false
}

// String returns the value of the first parameter with the given key when
// it is a string, or the empty string.
func (p Params) String(key string) string {
	v, _ := p.Get(key)
	s, _ := v.(string)
	return s
}

// Without returns a copy of the parameter list with every parameter of the
// given key removed.
func (p Params) Without(key string) Params {
	var pp Params
	for _, pi := range p {
		if pi.Key != key {
			pp = append(pp, pi)
		}
	}

	return pp
}

// Route is a matched routing rule with its bound parameters. The name and
// the pattern are advisory in case of synthetic direct routes. A route is
// dispatchable only when both the controller and the action identifiers
// are non-empty. Routes are read-only during dispatch.
type Route struct {
	Name       string
	Pattern    string
	Controller string
	Action     string
	Params     Params
}

// Router instances produce a route from a request. When no named route
// matches, they return a nil route and the positional parameters parsed
// from the request path, letting the caller attempt the direct route
// fallback. The matching algorithm is implementation specific.
type Router interface {
	Route(*http.Request) (*Route, Params, error)
}

// PathRouter is the zero configuration router. It never matches a named
// route and always returns the positional parameters of the request path.
type PathRouter struct{}

func (PathRouter) Route(r *http.Request) (*Route, Params, error) {
	return nil, PositionalParams(r.URL.Path), nil
}

// PositionalParams parses a request path of the convention based form
// /key/value/key/value into an ordered parameter list. A trailing key
// without a value gets NoActionValue assigned.
func PositionalParams(path string) Params {
	var params Params
	segments := splitPath(path)
	for i := 0; i < len(segments); i += 2 {
		if i+1 < len(segments) {
			params = append(params, Param{segments[i], segments[i+1]})
		} else {
			params = append(params, Param{segments[i], NoActionValue})
		}
	}

	return params
}

func splitPath(path string) []string {
	var segments []string
	start := -1
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if start >= 0 {
				segments = append(segments, path[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}

	return segments
}
