package transport

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer dials the flow source over a websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
