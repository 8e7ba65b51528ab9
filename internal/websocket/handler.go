package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a connection to a session and blocks until it closes.
func ServeWs(ctx context.Context, hub *Hub, c *websocket.Conn, sessionID string, handle QueryHandler) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 64)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump(ctx, handle)
}
