package logging

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dateFormat      = "02/Jan/2006:15:04:05 -0700"
	commonLogFormat = `%s - - [%s] "%s %s %s" %d %d`
	// format:
	// remote_host - - [date] "method uri protocol" status response_size controller action forwards duration_ms flow_id
	accessLogFormat = commonLogFormat + " %s %s %d %d %s\n"
)

type accessLogFormatter struct {
	format string
}

// Access log entry for one completed dispatch.
type AccessEntry struct {

	// The client request.
	Request *http.Request

	// The status code of the accumulated response.
	StatusCode int

	// The size of the response body in bytes.
	ResponseSize int

	// Controller and action of the initial dispatch token.
	Controller string
	Action     string

	// The number of internal forwards the dispatch loop followed.
	Forwards int

	// The flow id assigned to the request.
	FlowID string

	// The time that the request was received.
	RequestTime time.Time

	// The time spent dispatching the request.
	Duration time.Duration
}

var accessLog *logrus.Logger

// strip port from addresses with hostname, ipv4 or ipv6
func stripPort(address string) string {
	if h, _, err := net.SplitHostPort(address); err == nil {
		return h
	}

	return address
}

// The remote address of the client. When the 'X-Forwarded-For'
// header is set, then it is used instead.
func remoteAddr(r *http.Request) string {
	ff := r.Header.Get("X-Forwarded-For")
	if ff != "" {
		return ff
	}

	return r.RemoteAddr
}

func remoteHost(r *http.Request) string {
	a := remoteAddr(r)
	h := stripPort(a)
	if h != "" {
		return h
	}

	return "-"
}

func (f *accessLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	keys := []string{
		"host", "timestamp", "method", "uri", "proto",
		"status", "response-size", "controller", "action",
		"forwards", "duration", "flow-id"}

	values := make([]interface{}, len(keys))
	for i, key := range keys {
		values[i] = e.Data[key]
	}

	return []byte(fmt.Sprintf(f.format, values...)), nil
}

// Logs an access event in a common log derived format, extended with the
// dispatched controller and action, the forward count, the duration in
// milliseconds and the flow id.
func LogAccess(entry *AccessEntry) {
	if accessLog == nil || entry == nil {
		return
	}

	host := "-"
	method := ""
	uri := ""
	proto := ""

	if entry.Request != nil {
		host = remoteHost(entry.Request)
		method = entry.Request.Method
		uri = entry.Request.RequestURI
		proto = entry.Request.Proto
	}

	flowID := entry.FlowID
	if flowID == "" {
		flowID = "-"
	}

	accessLog.WithFields(logrus.Fields{
		"host":          host,
		"timestamp":     entry.RequestTime.Format(dateFormat),
		"method":        method,
		"uri":           uri,
		"proto":         proto,
		"status":        entry.StatusCode,
		"response-size": entry.ResponseSize,
		"controller":    entry.Controller,
		"action":        entry.Action,
		"forwards":      entry.Forwards,
		"duration":      int64(entry.Duration / time.Millisecond),
		"flow-id":       flowID,
	}).Info()
}
