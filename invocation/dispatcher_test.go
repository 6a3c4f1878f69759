package invocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlinfer/ml"
	"mlinfer/service"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	model := ml.NewLogisticRegression(1)
	require.NoError(t, model.Train(ml.DefaultDataset()))
	return NewDispatcher(service.NewPredictor(model))
}

func post(body string) Request {
	return NewRequest("POST", body)
}

func decodeBody(t *testing.T, resp Response) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &payload), "body %q", resp.Body)
	return payload
}

func TestDispatcher_Prediction(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		body string
		want string
	}{
		{body: `{"value": 30}`, want: `{"input":30,"prediction":1}`},
		{body: `{"value": 20}`, want: `{"input":20,"prediction":0}`},
		{body: `{"value": 35.5}`, want: `{"input":35.5,"prediction":1}`},
		{body: `{"value": -4}`, want: `{"input":-4,"prediction":0}`},
	}

	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			resp := d.Handle(context.Background(), post(tc.body))
			assert.Equal(t, 200, resp.StatusCode)
			assert.JSONEq(t, tc.want, resp.Body)
			assert.Equal(t, map[string]string{
				HeaderContentType: ContentTypeJSON,
				HeaderAllowOrigin: "*",
			}, resp.Headers)
		})
	}
}

func TestDispatcher_PredictionInRange(t *testing.T) {
	d := newTestDispatcher(t)

	for _, value := range []string{"-1000", "0", "0.5", "27", "28", "1e6"} {
		first := d.Handle(context.Background(), post(`{"value": `+value+`}`))
		require.Equal(t, 200, first.StatusCode)
		prediction := decodeBody(t, first)["prediction"]
		assert.Contains(t, []interface{}{0.0, 1.0}, prediction)

		second := d.Handle(context.Background(), post(`{"value": `+value+`}`))
		assert.Equal(t, first, second)
	}
}

func TestDispatcher_MissingField(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), post(`{}`))
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, map[string]string{HeaderContentType: ContentTypeJSON}, resp.Headers)
	assert.Equal(t, "Missing required field: value", decodeBody(t, resp)["error"])
	assert.Contains(t, resp.Body, "value")
}

func TestDispatcher_MissingBody(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Handle(context.Background(), Request{HTTPMethod: "POST"})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Missing required field: body", decodeBody(t, resp)["error"])
}

func TestDispatcher_Failures(t *testing.T) {
	d := newTestDispatcher(t)

	for _, body := range []string{`not json`, ``, `null`, `{"value": "thirty"}`, `{"value": [30]}`, `{"value": 1e999}`} {
		t.Run(body, func(t *testing.T) {
			resp := d.Handle(context.Background(), post(body))
			assert.Equal(t, 500, resp.StatusCode)
			assert.Equal(t, map[string]string{HeaderContentType: ContentTypeJSON}, resp.Headers)
			assert.NotEmpty(t, decodeBody(t, resp)["error"])
		})
	}
}

func TestDispatcher_MethodRouting(t *testing.T) {
	d := newTestDispatcher(t)
	body := `{"value": 30}`

	explicit := d.Handle(context.Background(), post(body))
	noMethod := d.Handle(context.Background(), Request{Body: &body})
	legacyField := d.Handle(context.Background(), Request{Method: "POST", Body: &body})
	other := d.Handle(context.Background(), NewRequest("PUT", body))

	assert.Equal(t, explicit, noMethod)
	assert.Equal(t, explicit, legacyField)
	assert.Equal(t, explicit, other)
}

func TestDispatcher_Documentation(t *testing.T) {
	d := newTestDispatcher(t)

	for _, req := range []Request{
		NewRequest("GET", ""),
		NewRequest("GET", `{"value": 30}`),
		NewRequest("get", "not json"),
		{Method: "GET"},
		{HTTPMethod: "GET", Method: "POST"},
	} {
		resp := d.Handle(context.Background(), req)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, ContentTypeHTML, resp.Headers[HeaderContentType])
		assert.Equal(t, "*", resp.Headers[HeaderAllowOrigin])
		assert.Contains(t, resp.Body, "<html")
	}
}

func TestDispatcher_HeadersNotShared(t *testing.T) {
	d := newTestDispatcher(t)

	first := d.Handle(context.Background(), post(`{"value": 30}`))
	first.Headers["X-Mutated"] = "yes"
	second := d.Handle(context.Background(), post(`{"value": 30}`))
	assert.NotContains(t, second.Headers, "X-Mutated")
}

func TestPredictionResponse_FailureWithoutError(t *testing.T) {
	resp := PredictionResponse(service.Result{Kind: service.KindFailure})
	assert.Equal(t, 500, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal error"}`, resp.Body)
}

func TestPredictionResponse_ErrorTextVerbatim(t *testing.T) {
	resp := PredictionResponse(service.Result{Kind: service.KindFailure, Err: errors.New(`bad <value> & "more"`)})
	assert.Equal(t, `{"error":"bad <value> & \"more\""}`, resp.Body)
}

func TestRequestJSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"httpMethod":"POST","body":"{\"value\": 30}"}`), &req))
	require.NotNil(t, req.Body)
	assert.Equal(t, `{"value": 30}`, *req.Body)
	assert.Equal(t, "POST", req.ResolvedMethod())

	req = Request{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.Nil(t, req.Body)
	assert.Equal(t, "", req.ResolvedMethod())
}

func TestInstrument(t *testing.T) {
	called := false
	h := Instrument("test", HandlerFunc(func(ctx context.Context, req Request) Response {
		called = true
		return ErrorResponse(400, "nope")
	}))

	resp := h.Handle(context.Background(), Request{})
	assert.True(t, called)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestDispatcher_Concurrent(t *testing.T) {
	model := ml.NewLogisticRegression(1)
	require.NoError(t, model.Train(ml.DefaultDataset()))
	d := NewDispatcher(service.NewPredictor(model))

	const workers = 400
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(value int) {
			defer wg.Done()

			want, err := model.Predict(float64(value))
			if err != nil {
				t.Errorf("predict %d: %v", value, err)
				return
			}

			var req Request
			if value%7 == 0 {
				req = Request{Method: "get"}
			} else {
				req = post(fmt.Sprintf(`{"value": %d}`, value))
			}
			resp := d.Handle(context.Background(), req)

			if value%7 == 0 {
				assert.Equal(t, ContentTypeHTML, resp.Headers[HeaderContentType])
				return
			}
			assert.Equal(t, 200, resp.StatusCode)
			assert.JSONEq(t, fmt.Sprintf(`{"input":%d,"prediction":%d}`, value, want), resp.Body)
		}(i % 60)
	}
	wg.Wait()
}
