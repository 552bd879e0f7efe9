package dispatch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/routing"
)

type testController struct {
	controller.Base
	pre     func(controller.Context) bool
	actions map[string]controller.ActionFunc
	post    func(controller.Context) *controller.Token
}

func (c *testController) PreDispatch(ctx controller.Context) bool {
	if c.pre != nil {
		return c.pre(ctx)
	}

	return true
}

func (c *testController) Action(name string) controller.ActionFunc {
	return c.actions[name]
}

func (c *testController) PostDispatch(ctx controller.Context) *controller.Token {
	if c.post != nil {
		return c.post(ctx)
	}

	return nil
}

type recordingHooks struct {
	pre        func(controller.Context) bool
	postCalls  []*controller.Token
	substitute func(controller.Context, *controller.Token) *controller.Token
	filtered   int
}

func (h *recordingHooks) PreDispatch(ctx controller.Context) bool {
	if h.pre != nil {
		return h.pre(ctx)
	}

	return true
}

func (h *recordingHooks) PostDispatch(ctx controller.Context, next *controller.Token) *controller.Token {
	h.postCalls = append(h.postCalls, next)
	if h.substitute != nil {
		return h.substitute(ctx, next)
	}

	return next
}

func (h *recordingHooks) FilterResponse(controller.Context) { h.filtered++ }

func testRegistry(factories map[string]func() controller.Controller) *controller.Registry {
	r := controller.NewRegistry(controller.RegistryOptions{
		Exists: func(string) bool { return true },
	})

	for name, f := range factories {
		r.Register(name, f)
	}

	return r
}

func testFrontController(reg *controller.Registry, hooks Hooks, maxForwards int) *FrontController {
	return WithParams(Params{
		Router:           routing.PathRouter{},
		Resolver:         ConventionResolver{Dir: "controllers"},
		Registry:         reg,
		Hooks:            hooks,
		ControllerExists: func(string) bool { return true },
		MaxForwards:      maxForwards,
	})
}

func testToken(name, action string, params routing.Params) *controller.Token {
	t, _ := ConventionResolver{Dir: "controllers"}.Resolve(&routing.Route{
		Name:       "test",
		Controller: name,
		Action:     action,
		Params:     params,
	})

	return t
}

func testRequest() *http.Request {
	return httptest.NewRequest("GET", "http://example.org/test", nil)
}

func TestVetoTerminatesAfterOneIteration(t *testing.T) {
	instances := 0
	reg := testRegistry(map[string]func() controller.Controller{
		"blog": func() controller.Controller {
			instances++
			return &testController{}
		},
	})

	hooks := &recordingHooks{pre: func(controller.Context) bool { return false }}
	fc := testFrontController(reg, hooks, 0)

	rsp, err := fc.Dispatch(testRequest(), nil, testToken("blog", "index", nil))
	if err != nil {
		t.Fatal(err)
	}

	if rsp == nil {
		t.Fatal("expected a response")
	}

	if instances != 0 {
		t.Error("vetoed iteration instantiated a controller", instances)
	}

	if len(hooks.postCalls) != 1 || hooks.postCalls[0] != nil {
		t.Error("expected the post dispatch hook to be called once with nil", hooks.postCalls)
	}

	if hooks.filtered != 1 {
		t.Error("expected the response filter to run once", hooks.filtered)
	}
}

func TestForwardChainInstantiatesFreshInstances(t *testing.T) {
	const forwards = 3

	instances := 0
	remaining := forwards
	reg := testRegistry(map[string]func() controller.Controller{
		"blog": func() controller.Controller {
			instances++
			return &testController{
				actions: map[string]controller.ActionFunc{
					"index": func(ctx controller.Context, _ routing.Params) {
						ctx.Response().WriteString("i")
					},
				},
				post: func(ctx controller.Context) *controller.Token {
					if remaining == 0 {
						return nil
					}

					remaining--
					token, err := ctx.Forward("blog", "index", nil)
					if err != nil {
						t.Fatal(err)
					}

					return token
				},
			}
		},
	})

	hooks := &recordingHooks{}
	fc := testFrontController(reg, hooks, 0)

	rsp, err := fc.Dispatch(testRequest(), nil, testToken("blog", "index", nil))
	if err != nil {
		t.Fatal(err)
	}

	if instances != forwards+1 {
		t.Error("expected a fresh instance per iteration", instances)
	}

	if string(rsp.Body()) != strings.Repeat("i", forwards+1) {
		t.Error("expected all iterations to write the same response", string(rsp.Body()))
	}

	if len(hooks.postCalls) != forwards+1 {
		t.Error("expected the post dispatch hook to run every iteration", len(hooks.postCalls))
	}
}

func TestControllerPreDispatchSkipsActionButForwards(t *testing.T) {
	firstActionCalled := false
	instances := 0
	reg := testRegistry(map[string]func() controller.Controller{
		"first": func() controller.Controller {
			instances++
			return &testController{
				pre: func(controller.Context) bool { return false },
				actions: map[string]controller.ActionFunc{
					"index": func(controller.Context, routing.Params) {
						firstActionCalled = true
					},
				},
				post: func(ctx controller.Context) *controller.Token {
					token, err := ctx.Forward("second", "index", nil)
					if err != nil {
						t.Fatal(err)
					}

					return token
				},
			}
		},
		"second": func() controller.Controller {
			instances++
			return &testController{
				actions: map[string]controller.ActionFunc{
					"index": func(ctx controller.Context, _ routing.Params) {
						ctx.Response().WriteString("second")
					},
				},
			}
		},
	})

	fc := testFrontController(reg, &recordingHooks{}, 0)
	rsp, err := fc.Dispatch(testRequest(), nil, testToken("first", "index", nil))
	if err != nil {
		t.Fatal(err)
	}

	if firstActionCalled {
		t.Error("expected the vetoed action to be skipped")
	}

	if instances != 2 {
		t.Error("expected the forward of the skipped action to be followed", instances)
	}

	if string(rsp.Body()) != "second" {
		t.Error("unexpected response body", string(rsp.Body()))
	}
}

func TestInvalidActionFailsBeforeControllerHooks(t *testing.T) {
	preCalled := false
	reg := testRegistry(map[string]func() controller.Controller{
		"blog": func() controller.Controller {
			return &testController{
				pre: func(controller.Context) bool {
					preCalled = true
					return true
				},
			}
		},
	})

	fc := testFrontController(reg, &recordingHooks{}, 0)
	_, err := fc.Dispatch(testRequest(), nil, testToken("blog", "missing", nil))

	var invalidAction *InvalidActionError
	if !errors.As(err, &invalidAction) {
		t.Fatal("expected an invalid action error, got", err)
	}

	if invalidAction.Controller != "blog" || invalidAction.Action != "missing" {
		t.Error("unexpected error content", invalidAction)
	}

	if preCalled {
		t.Error("expected the controller pre dispatch hook not to run")
	}
}

func TestMissingBackingFileFailsDispatch(t *testing.T) {
	reg := controller.NewRegistry(controller.RegistryOptions{
		Exists: func(string) bool { return false },
	})

	fc := testFrontController(reg, &recordingHooks{}, 0)
	_, err := fc.Dispatch(testRequest(), nil, testToken("blog", "index", nil))

	var invalidController *controller.InvalidControllerError
	if !errors.As(err, &invalidController) {
		t.Fatal("expected an invalid controller error, got", err)
	}
}

func TestMaxForwardsReached(t *testing.T) {
	reg := testRegistry(map[string]func() controller.Controller{
		"loop": func() controller.Controller {
			return &testController{
				actions: map[string]controller.ActionFunc{
					"index": func(controller.Context, routing.Params) {},
				},
				post: func(ctx controller.Context) *controller.Token {
					token, err := ctx.Forward("loop", "index", nil)
					if err != nil {
						t.Fatal(err)
					}

					return token
				},
			}
		},
	})

	fc := testFrontController(reg, &recordingHooks{}, 3)
	_, err := fc.Dispatch(testRequest(), nil, testToken("loop", "index", nil))
	if err != ErrMaxForwards {
		t.Error("expected the forward limit to be applied, got", err)
	}
}

func TestHookMaySubstituteForwardingToken(t *testing.T) {
	reg := testRegistry(map[string]func() controller.Controller{
		"blog": func() controller.Controller {
			return &testController{
				actions: map[string]controller.ActionFunc{
					"index": func(ctx controller.Context, _ routing.Params) {
						ctx.Response().WriteString("blog")
					},
				},
			}
		},
		"audit": func() controller.Controller {
			return &testController{
				actions: map[string]controller.ActionFunc{
					"record": func(ctx controller.Context, _ routing.Params) {
						ctx.Response().WriteString(",audited")
					},
				},
			}
		},
	})

	substituted := false
	hooks := &recordingHooks{
		substitute: func(ctx controller.Context, next *controller.Token) *controller.Token {
			if next != nil || substituted {
				return next
			}

			substituted = true
			token, err := ctx.Forward("audit", "record", nil)
			if err != nil {
				t.Fatal(err)
			}

			return token
		},
	}

	fc := testFrontController(reg, hooks, 0)
	rsp, err := fc.Dispatch(testRequest(), nil, testToken("blog", "index", nil))
	if err != nil {
		t.Fatal(err)
	}

	if string(rsp.Body()) != "blog,audited" {
		t.Error("expected the substituted forward to be followed", string(rsp.Body()))
	}
}

func TestServeHTTPDirectRoute(t *testing.T) {
	dir := t.TempDir()
	backingFile := filepath.Join(dir, "blog.go")
	if err := os.WriteFile(backingFile, []byte("package controllers\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reg := controller.NewRegistry(controller.RegistryOptions{
		Linker: controller.Linker{
			backingFile: func(r *controller.Registry) {
				r.Register("blog", func() controller.Controller {
					return &testController{
						actions: map[string]controller.ActionFunc{
							"index": func(ctx controller.Context, _ routing.Params) {
								ctx.Response().WriteString("index")
							},
							"show": func(ctx controller.Context, params routing.Params) {
								ctx.Response().WriteString("show:" + params.String("id"))
							},
						},
					}
				})
			},
		},
	})

	fc := WithParams(Params{
		Router:   routing.PathRouter{},
		Resolver: ConventionResolver{Dir: dir},
		Registry: reg,
	})

	for _, ti := range []struct {
		msg            string
		path           string
		expectedStatus int
		expectedBody   string
	}{{
		msg:            "explicit action with parameters",
		path:           "/blog/show/id/42",
		expectedStatus: http.StatusOK,
		expectedBody:   "show:42",
	}, {
		msg:            "bare controller path selects index",
		path:           "/blog",
		expectedStatus: http.StatusOK,
		expectedBody:   "index",
	}, {
		msg:            "unknown controller",
		path:           "/nosuch/action",
		expectedStatus: http.StatusNotFound,
	}, {
		msg:            "empty path",
		path:           "/",
		expectedStatus: http.StatusNotFound,
	}} {
		t.Run(ti.msg, func(t *testing.T) {
			w := httptest.NewRecorder()
			fc.ServeHTTP(w, httptest.NewRequest("GET", "http://example.org"+ti.path, nil))

			if w.Code != ti.expectedStatus {
				t.Error("unexpected status", w.Code, ti.expectedStatus)
			}

			if ti.expectedBody != "" && w.Body.String() != ti.expectedBody {
				t.Error("unexpected body", w.Body.String())
			}
		})
	}
}

func TestServeHTTPInvalidActionMapsToNotFound(t *testing.T) {
	dir := t.TempDir()
	backingFile := filepath.Join(dir, "blog.go")
	if err := os.WriteFile(backingFile, []byte("package controllers\n"), 0644); err != nil {
		t.Fatal(err)
	}

	reg := controller.NewRegistry(controller.RegistryOptions{
		Linker: controller.Linker{
			backingFile: func(r *controller.Registry) {
				r.Register("blog", func() controller.Controller {
					return &testController{}
				})
			},
		},
	})

	fc := WithParams(Params{
		Router:   routing.PathRouter{},
		Resolver: ConventionResolver{Dir: dir},
		Registry: reg,
	})

	w := httptest.NewRecorder()
	fc.ServeHTTP(w, httptest.NewRequest("GET", "http://example.org/blog/nosuch", nil))
	if w.Code != http.StatusNotFound {
		t.Error("unexpected status", w.Code)
	}
}
