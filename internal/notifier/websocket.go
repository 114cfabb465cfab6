package notifier

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketListener adapts a gorilla websocket connection to the Listener
// interface. Writes are serialized with a mutex because the websocket
// connection does not support concurrent writers.
type WebSocketListener struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
}

func NewWebSocketListener(conn *websocket.Conn) *WebSocketListener {
	return &WebSocketListener{conn: conn}
}

func (w *WebSocketListener) Send(data []byte) error {
	w.writeMutex.Lock()
	defer w.writeMutex.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WebSocketListener) Close() error {
	w.writeMutex.Lock()
	w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.writeMutex.Unlock()
	return w.conn.Close()
}
