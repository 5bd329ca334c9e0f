package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single event write; a stalled countdown
	// subscriber is dropped rather than blocking the tick loop.
	writeWait = 10 * time.Second
	// readWait is how long a connection may stay silent. Clients ping at
	// least this often to keep the countdown stream open.
	readWait = 5 * time.Minute
)

// WriteTyped sends one event payload to the countdown subscriber.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse event.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON decodes the next client message, enforcing the idle deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
