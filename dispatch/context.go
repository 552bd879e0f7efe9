package dispatch

import (
	"net/http"
	"time"

	"github.com/veloq/forecourt/controller"
	"github.com/veloq/forecourt/logging"
	"github.com/veloq/forecourt/routing"
)

// context carries the state of one top level dispatch call through the
// loop iterations and hook invocations. It implements controller.Context.
type context struct {
	fc           *FrontController
	request      *http.Request
	response     *Response
	route        *routing.Route
	token        *controller.Token
	bootstrapper interface{}
	stateBag     map[string]interface{}
	log          logging.Logger
	flowID       string
	startServe   time.Time
	iterations   int
	forwards     int
}

func newContext(fc *FrontController, r *http.Request, bootstrapper interface{}, route *routing.Route) *context {
	return &context{
		fc:           fc,
		request:      r,
		response:     NewResponse(),
		route:        route,
		bootstrapper: bootstrapper,
		stateBag:     make(map[string]interface{}),
		log:          fc.log,
	}
}

func (c *context) Request() *http.Request           { return c.request }
func (c *context) Response() controller.Response    { return c.response }
func (c *context) Route() *routing.Route            { return c.route }
func (c *context) Token() *controller.Token         { return c.token }
func (c *context) Bootstrapper() interface{}        { return c.bootstrapper }
func (c *context) StateBag() map[string]interface{} { return c.stateBag }
func (c *context) Logger() logging.Logger           { return c.log }

func (c *context) Forward(name, action string, params routing.Params) (*controller.Token, error) {
	return c.fc.resolver.Resolve(&routing.Route{
		Name:       "forward",
		Controller: name,
		Action:     action,
		Params:     params,
	})
}
