package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. initial, when non-nil, produces
// the message sent to a client right after it connects, so new sessions
// start from the current state instead of waiting for the next mutation.
func HandleWebSocket(hub *Hub, initial func() (Message, error), logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn)
		if initial != nil {
			if msg, err := initial(); err == nil {
				client.Send(msg)
			} else {
				logger.Error("initial snapshot", "error", err)
			}
		}
		client.Run(r.Context())
	}
}
