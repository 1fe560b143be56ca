package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"live-voting/internal/domain"

	"github.com/gorilla/websocket"
)

const closeWriteWait = time.Second

// GorillaDialer opens push connections with gorilla/websocket.
type GorillaDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func NewGorillaDialer(handshakeTimeout time.Duration, header http.Header) *GorillaDialer {
	return &GorillaDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: header,
	}
}

func (d *GorillaDialer) Dial(ctx context.Context, endpoint string) (domain.Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, endpoint, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &gorillaConn{conn: conn}, nil
}

type gorillaConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close sends a normal-closure frame and closes the socket. Safe to call more than once.
func (c *gorillaConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
