package telemetry

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP connection to a WebSocket, registers it with hub
// under a freshly generated client ID, and pumps queued frames to it until
// the connection closes or the hub drops it for being slow.
func ServeWS(hub *Hub, log zerolog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		SendCh: make(chan []byte, 256),
		Done:   make(chan struct{}),
	}
	hub.Register(client)

	go readPump(conn, hub, client, log)
	writePump(conn, client, log)
}

// readPump discards inbound client frames (this is a broadcast-only feed)
// but must still read to notice the connection closing.
func readPump(conn *websocket.Conn, hub *Hub, client *Client, log zerolog.Logger) {
	defer func() {
		hub.Unregister(client.ID)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, client *Client, log zerolog.Logger) {
	defer conn.Close()
	for {
		select {
		case data, ok := <-client.SendCh:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-client.Done:
			return
		}
	}
}
