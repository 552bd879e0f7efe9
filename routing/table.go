package routing

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

type routeDef struct {
	Name       string        `yaml:"name"`
	Path       string        `yaml:"path"`
	Controller string        `yaml:"controller"`
	Action     string        `yaml:"action"`
	Params     yaml.MapSlice `yaml:"params"`
}

type routeFile struct {
	Routes []routeDef `yaml:"routes"`
}

// TableRouter matches requests against an explicit, ordered route table.
// Patterns are literal path segments with :name placeholders binding a
// single segment each. The first matching route wins. When no route
// matches, the positional parameters of the path are returned instead, so
// that the front controller can attempt the direct route fallback.
type TableRouter struct {
	routes []*Route
}

// NewTableRouter creates a router from predefined routes. The pattern of
// each route is picked up from the Pattern field; fixed parameters from
// the route definition are preserved in definition order.
func NewTableRouter(routes []*Route) *TableRouter {
	return &TableRouter{routes: routes}
}

// OpenTable loads a route table from a YAML file.
func OpenTable(path string) (*TableRouter, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f routeFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse route table %s: %w", path, err)
	}

	routes := make([]*Route, 0, len(f.Routes))
	for _, d := range f.Routes {
		if d.Controller == "" || d.Action == "" {
			return nil, fmt.Errorf("route table %s: route %q without controller or action", path, d.Name)
		}

		r := &Route{
			Name:       d.Name,
			Pattern:    d.Path,
			Controller: d.Controller,
			Action:     d.Action,
		}

		for _, item := range d.Params {
			key, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("route table %s: route %q with non-string parameter key", path, d.Name)
			}

			r.Params = append(r.Params, Param{key, item.Value})
		}

		routes = append(routes, r)
	}

	return &TableRouter{routes: routes}, nil
}

func (t *TableRouter) Route(r *http.Request) (*Route, Params, error) {
	path := splitPath(r.URL.Path)
	for _, rt := range t.routes {
		if bound, ok := matchPattern(rt, path); ok {
			return bound, nil, nil
		}
	}

	return nil, PositionalParams(r.URL.Path), nil
}

// matchPattern checks a route pattern against the path segments and, on
// success, returns a copy of the route with the placeholder bindings
// prepended to the fixed parameters.
func matchPattern(rt *Route, path []string) (*Route, bool) {
	pattern := splitPath(rt.Pattern)
	if len(pattern) != len(path) {
		return nil, false
	}

	var bound Params
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			bound = append(bound, Param{seg[1:], path[i]})
		} else if seg != path[i] {
			return nil, false
		}
	}

	r := *rt
	r.Params = append(bound, rt.Params...)
	return &r, true
}
