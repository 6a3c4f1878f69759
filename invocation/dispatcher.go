package invocation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"mlinfer/monitoring"
	"mlinfer/service"
)

const methodGet = "GET"

// Predictor is the prediction service the dispatcher delegates to.
type Predictor interface {
	Predict(body *string) service.Result
}

// Dispatcher routes GET to the documentation page and everything else,
// including requests with no method, to prediction.
type Dispatcher struct {
	predictor Predictor
}

func NewDispatcher(predictor Predictor) *Dispatcher {
	return &Dispatcher{predictor: predictor}
}

func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	if strings.EqualFold(req.ResolvedMethod(), methodGet) {
		return Documentation()
	}
	return PredictionResponse(d.predictor.Predict(req.Body))
}

type predictionBody struct {
	Input      json.Number `json:"input"`
	Prediction int         `json:"prediction"`
}

// PredictionResponse maps a prediction result onto the wire contract.
func PredictionResponse(result service.Result) Response {
	switch result.Kind {
	case service.KindSuccess:
		return jsonResponse(200, true, predictionBody{
			Input:      result.Input.Raw,
			Prediction: result.Label,
		})
	case service.KindMissingField:
		return ErrorResponse(400, (&service.MissingFieldError{Field: result.Field}).Error())
	default:
		message := "internal error"
		if result.Err != nil {
			message = result.Err.Error()
		}
		return ErrorResponse(500, message)
	}
}

// Instrument records invocation metrics for host around next.
func Instrument(host string, next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req Request) Response {
		start := time.Now()
		resp := next.Handle(ctx, req)
		monitoring.InvocationCount.WithLabelValues(host, statusLabel(resp.StatusCode)).Inc()
		monitoring.InvocationDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
		return resp
	})
}

func statusLabel(code int) string {
	switch code {
	case 200:
		return "200"
	case 400:
		return "400"
	case 500:
		return "500"
	default:
		return "other"
	}
}
