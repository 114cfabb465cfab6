package handler

import (
	"net/http"

	"call-server/internal/notifier"
	"call-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard runs on a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleTranscriptionWebSocket upgrades the connection and attaches it as the
// call's live transcript listener. Attaching evicts any previous listener for
// the same call id. The read loop only watches for the client going away;
// clients are not expected to send anything.
func (h *Handler) HandleTranscriptionWebSocket(c *gin.Context) {
	callID := c.Param("call_id")
	ctx := observability.WithFields(c.Request.Context(),
		observability.Field{Key: "call_id", Value: callID},
	)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "failed to upgrade transcription websocket", err)
		return
	}

	listener := notifier.NewWebSocketListener(conn)
	h.notifier.Attach(ctx, callID, listener)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// Detach only this connection's listener; a newer listener for the same
	// call id must survive this cleanup.
	h.notifier.Detach(ctx, callID, listener)
}
