package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mlinfer/invocation"
	"mlinfer/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// websocketHandler serves one invocation per text frame. Each frame is a JSON
// request record; each reply is a JSON response record. A frame larger than
// maxFrameBytes closes the connection with CloseMessageTooBig.
func websocketHandler(handler invocation.Handler, maxFrameBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		// The server's read and write timeouts must not end a long-lived socket.
		_ = conn.SetReadDeadline(time.Time{})
		_ = conn.SetWriteDeadline(time.Time{})
		if maxFrameBytes > 0 {
			conn.SetReadLimit(maxFrameBytes)
		}

		requestID := GetRequestID(r.Context())
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				if errors.Is(err, websocket.ErrReadLimit) {
					logger.Warnf("websocket %s: frame exceeds %d bytes", requestID, maxFrameBytes)
					return
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warnf("websocket %s read: %v", requestID, err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var resp invocation.Response
			var req invocation.Request
			if err := json.Unmarshal(payload, &req); err != nil {
				resp = invocation.ErrorResponse(http.StatusInternalServerError, err.Error())
			} else {
				resp = handler.Handle(r.Context(), req)
			}

			if err := conn.WriteJSON(resp); err != nil {
				logger.Warnf("websocket %s write: %v", requestID, err)
				return
			}
		}
	}
}
