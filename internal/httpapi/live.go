package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const liveWriteTimeout = 5 * time.Second

// handleLive streams the user's post-update topic views over a WebSocket.
func (a *api) handleLive(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())

	// The server write timeout must not cut long-lived connections.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(a.AllowedOrigins),
	})
	if err != nil {
		slog.Warn("websocket accept failed", "user_id", u.ID, "error", err)
		return
	}
	defer conn.CloseNow()

	updates, unsubscribe := a.Hub.Subscribe(u.ID)
	defer unsubscribe()

	slog.Info("live connection opened", "user_id", u.ID)
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			slog.Info("live connection closed", "user_id", u.ID)
			return
		case payload, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := wsjson.Write(wctx, conn, payload)
			cancel()
			if err != nil {
				slog.Warn("live write failed", "user_id", u.ID, "error", err)
				return
			}
		}
	}
}
