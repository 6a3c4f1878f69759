// Package lambda adapts API Gateway proxy events to invocation records.
// REST API (payload 1.0) and HTTP API or function URL (payload 2.0) events
// are both accepted.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"mlinfer/config"
	"mlinfer/invocation"
	"mlinfer/logger"
)

const (
	host = "lambda"

	payloadVersion2 = "2.0"
)

type Handler struct {
	next invocation.Handler
}

func NewHandler(next invocation.Handler) *Handler {
	return &Handler{next: invocation.Instrument(host, next)}
}

// Setup loads configPath and the model it names. A returned error is fatal.
func Setup(configPath string) (*Handler, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyLogLevel(cfg)

	dispatcher, err := invocation.NewDispatcherFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewHandler(dispatcher), nil
}

// Start hands control to the Lambda runtime. It does not return.
func (h *Handler) Start() {
	awslambda.Start(h.InvokeAny)
}

// InvokeAny decodes a raw event by its payload version and serves it.
func (h *Handler) InvokeAny(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var envelope struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return toProxyResponse(invocation.ErrorResponse(500, fmt.Sprintf("decode event: %v", err))), nil
	}

	if envelope.Version == payloadVersion2 {
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			return toV2Response(invocation.ErrorResponse(500, fmt.Sprintf("decode event: %v", err))), nil
		}
		return h.InvokeV2(ctx, event)
	}

	var event events.APIGatewayProxyRequest
	if err := json.Unmarshal(payload, &event); err != nil {
		return toProxyResponse(invocation.ErrorResponse(500, fmt.Sprintf("decode event: %v", err))), nil
	}
	return h.Invoke(ctx, event)
}

// Invoke serves one REST API proxy event. Every outcome, including a body
// that is not valid base64, is reported through the response record; the
// returned error is always nil so the gateway never sees a 502.
func (h *Handler) Invoke(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := h.handle(ctx, event.RequestContext.RequestID, event.HTTPMethod, event.Body, event.IsBase64Encoded)
	return toProxyResponse(resp), nil
}

// InvokeV2 serves one HTTP API or function URL event. The method lives in
// the request context rather than at the top level.
func (h *Handler) InvokeV2(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp := h.handle(ctx, event.RequestContext.RequestID, event.RequestContext.HTTP.Method, event.Body, event.IsBase64Encoded)
	return toV2Response(resp), nil
}

func (h *Handler) handle(ctx context.Context, requestID, method, body string, base64Encoded bool) invocation.Response {
	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			logger.Warnf("lambda %s: decode body: %v", requestID, err)
			return invocation.ErrorResponse(500, fmt.Sprintf("decode base64 body: %v", err))
		}
		body = string(decoded)
	}

	return h.next.Handle(ctx, invocation.Request{
		HTTPMethod: method,
		Body:       &body,
	})
}

func toProxyResponse(resp invocation.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

func toV2Response(resp invocation.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}
