package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"mlinfer/invocation"
	"mlinfer/logger"
	"mlinfer/monitoring"
)

const (
	hostHTTP      = "http"
	hostWebSocket = "websocket"
)

// RegisterHandlers mounts the invocation endpoints and service routes.
func RegisterHandlers(mux *http.ServeMux, handler invocation.Handler, config ServerConfig) {
	invoke := PreflightMiddleware(invocationHandler(invocation.Instrument(hostHTTP, handler)))

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("/predict", invoke)
	mux.Handle("/", invoke)

	if config.EnableWebSocket {
		mux.Handle("GET /ws", websocketHandler(invocation.Instrument(hostWebSocket, handler), config.MaxBodyBytes))
	}
	if config.EnableMetrics {
		mux.Handle("GET /metrics", monitoring.Handler())
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// invocationHandler translates an HTTP request into an invocation record
// and writes the record's response back verbatim.
func invocationHandler(handler invocation.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeResponse(w, invocation.ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()))
				return
			}
			logger.Warnf("read request body: %v", err)
			writeResponse(w, invocation.ErrorResponse(http.StatusInternalServerError, err.Error()))
			return
		}

		writeResponse(w, handler.Handle(r.Context(), invocation.NewRequest(r.Method, body)))
	})
}

// readBody returns the body as UTF-8, transcoding from the declared charset
// when it is not UTF-8 already.
func readBody(r *http.Request) (string, error) {
	reader := io.Reader(r.Body)

	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if charset := strings.TrimSpace(params["charset"]); charset != "" && !isUTF8(charset) {
				enc, err := htmlindex.Get(charset)
				if err != nil {
					return "", fmt.Errorf("unsupported charset %q", charset)
				}
				reader = transform.NewReader(reader, enc.NewDecoder())
			}
		}
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func isUTF8(charset string) bool {
	return strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8")
}

func writeResponse(w http.ResponseWriter, resp invocation.Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
