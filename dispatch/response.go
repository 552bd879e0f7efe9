package dispatch

import (
	"bytes"
	"net/http"
)

// Response is the single mutable response accumulator of one dispatch
// call. It is created once per top level Dispatch call and threaded
// through every loop iteration and every hook, so that any number of
// internal forwards contribute to one client visible reply.
type Response struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func NewResponse() *Response {
	return &Response{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *Response) Header() http.Header { return r.header }
func (r *Response) StatusCode() int     { return r.status }
func (r *Response) SetStatusCode(c int) { r.status = c }

func (r *Response) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *Response) WriteString(s string) (int, error) {
	return r.body.WriteString(s)
}

// Size returns the number of accumulated body bytes.
func (r *Response) Size() int { return r.body.Len() }

// Body returns the accumulated body.
func (r *Response) Body() []byte { return r.body.Bytes() }

// WriteTo flushes the accumulated response to an HTTP response writer.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	for k, v := range r.header {
		w.Header()[http.CanonicalHeaderKey(k)] = v
	}

	w.WriteHeader(r.status)
	_, err := w.Write(r.body.Bytes())
	return err
}
