// Package invocation defines the host-neutral request and response records
// and the dispatcher that serves them.
package invocation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

const (
	HeaderContentType = "Content-Type"
	HeaderAllowOrigin = "Access-Control-Allow-Origin"

	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Request is one inbound invocation as delivered by a host.
type Request struct {
	HTTPMethod string `json:"httpMethod,omitempty"`
	Method     string `json:"method,omitempty"`
	// Body is nil when the event carried no body key.
	Body *string `json:"body,omitempty"`
}

// NewRequest builds a request with a present body.
func NewRequest(method, body string) Request {
	return Request{HTTPMethod: method, Body: &body}
}

// ResolvedMethod prefers httpMethod over method. It is empty when neither
// is set.
func (r Request) ResolvedMethod() string {
	if m := strings.TrimSpace(r.HTTPMethod); m != "" {
		return m
	}
	return strings.TrimSpace(r.Method)
}

// Response is what a host sends back to the caller.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Handler serves invocations. Implementations must be safe for concurrent use.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

type HandlerFunc func(ctx context.Context, req Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds a JSON error response. Error responses carry only a
// content type.
func ErrorResponse(statusCode int, message string) Response {
	return jsonResponse(statusCode, false, errorBody{Error: message})
}

func jsonResponse(statusCode int, cors bool, v interface{}) Response {
	headers := map[string]string{HeaderContentType: ContentTypeJSON}
	if cors {
		headers[HeaderAllowOrigin] = "*"
	}

	payload, err := marshal(v)
	if err != nil {
		payload, _ = marshal(errorBody{Error: err.Error()})
		return Response{
			StatusCode: 500,
			Headers:    map[string]string{HeaderContentType: ContentTypeJSON},
			Body:       payload,
		}
	}
	return Response{StatusCode: statusCode, Headers: headers, Body: payload}
}

func marshal(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
