package forecourt

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/routing"
)

type blogController struct {
	controller.Base
}

func (c *blogController) Action(name string) controller.ActionFunc {
	switch name {
	case "index":
		return func(ctx controller.Context, _ routing.Params) {
			ctx.Response().WriteString("blog index")
		}
	case "show":
		return func(ctx controller.Context, p routing.Params) {
			fmt.Fprintf(ctx.Response(), "article %s", p.String("id"))
		}
	default:
		return nil
	}
}

func testApp(t *testing.T, o Options) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blog.go"), []byte("package controllers\n"), 0644); err != nil {
		t.Fatal(err)
	}

	o.ControllerDir = dir
	o.Linker = controller.Linker{
		filepath.Join(dir, "blog.go"): func(r *controller.Registry) {
			r.Register("blog", func() controller.Controller { return &blogController{} })
		},
	}
	o.AccessLogDisabled = true
	o.ApplicationLogOutput = io.Discard

	fc, err := New(o)
	if err != nil {
		t.Fatal(err)
	}

	s := httptest.NewServer(fc)
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, s *httptest.Server, path string) (int, string) {
	t.Helper()
	rsp, err := http.Get(s.URL + path)
	if err != nil {
		t.Fatal(err)
	}

	defer rsp.Body.Close()
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		t.Fatal(err)
	}

	return rsp.StatusCode, string(body)
}

func TestServeByConvention(t *testing.T) {
	s := testApp(t, Options{})

	for _, test := range []struct {
		msg        string
		path       string
		status     int
		expectBody string
	}{{
		msg:        "explicit action with params",
		path:       "/blog/show/id/42",
		status:     http.StatusOK,
		expectBody: "article 42",
	}, {
		msg:        "controller only defaults to index",
		path:       "/blog",
		status:     http.StatusOK,
		expectBody: "blog index",
	}, {
		msg:    "unknown controller",
		path:   "/shop/checkout",
		status: http.StatusNotFound,
	}, {
		msg:    "empty path has no route",
		path:   "/",
		status: http.StatusNotFound,
	}} {
		t.Run(test.msg, func(t *testing.T) {
			status, body := get(t, s, test.path)
			if status != test.status {
				t.Error("wrong status", status, test.status)
			}

			if test.expectBody != "" && body != test.expectBody {
				t.Error("wrong body", body, test.expectBody)
			}
		})
	}
}

func TestServeByRouteTable(t *testing.T) {
	s := testApp(t, Options{
		Routes: []*routing.Route{{
			Name:       "article",
			Pattern:    "/article/:id",
			Controller: "blog",
			Action:     "show",
		}},
	})

	status, body := get(t, s, "/article/7")
	if status != http.StatusOK || body != "article 7" {
		t.Error("named route not served", status, body)
	}

	// unmatched requests still get the convention fallback
	status, body = get(t, s, "/blog/show/id/42")
	if status != http.StatusOK || body != "article 42" {
		t.Error("fallback not served", status, body)
	}
}

func TestServeWithFSCacheEnabled(t *testing.T) {
	s := testApp(t, Options{EnableFSCache: true})

	for i := 0; i < 3; i++ {
		status, body := get(t, s, "/blog")
		if status != http.StatusOK || body != "blog index" {
			t.Error("wrong response with caching enabled", status, body)
		}
	}
}

func TestCustomDefaultHTTPStatus(t *testing.T) {
	s := testApp(t, Options{DefaultHTTPStatus: http.StatusTeapot})

	status, _ := get(t, s, "/nosuch")
	if status != http.StatusTeapot {
		t.Error("configured status not used", status)
	}
}

func TestNewFailsOnUnknownTracer(t *testing.T) {
	_, err := New(Options{OpenTracing: "jaeger"})
	if err == nil {
		t.Error("expected an unsupported tracer to fail")
	}
}

func TestNewFailsOnMissingRoutesFile(t *testing.T) {
	_, err := New(Options{RoutesFile: "no/such/file.yaml"})
	if err == nil {
		t.Error("expected a missing route table to fail")
	}
}
