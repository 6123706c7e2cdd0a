package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// conn wraps a *websocket.Conn and implements core.Conn. Writes are
// serialized with a mutex: broadcasts from other members' read loops
// and direct status replies may hit the same socket concurrently, and
// interleaved partial writes on one transport are not safe. Reads stay
// unguarded; the session loop is the only reader.
type conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *conn {
	return &conn{ws: ws, writeTimeout: writeTimeout}
}

func (c *conn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *conn) SendText(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

func (c *conn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, data)
}

func (c *conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// closeWith sends a close frame with the given status code before
// tearing the connection down.
func (c *conn) closeWith(code int, reason string) {
	deadline := time.Now().Add(c.writeTimeout)
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.mu.Unlock()
	_ = c.ws.Close()
}

// Close attempts a normal close frame before tearing the transport
// down, so a superseded client observes a clean close rather than a
// dropped socket. The write fails harmlessly when the peer is already
// gone.
func (c *conn) Close() error {
	deadline := time.Now().Add(c.writeTimeout)
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.mu.Unlock()
	return c.ws.Close()
}
