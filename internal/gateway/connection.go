package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vmflow/pkg/logging"
)

const (
	// outboundBuffer sizes the per-connection send queue. A client that
	// falls further behind has frames dropped; the fan-out never blocks
	// on a slow reader.
	outboundBuffer = 32

	writeTimeout = 10 * time.Second
)

// connection is one authenticated client. All writes go through the
// outbound channel and a single writer goroutine, which is the only
// place the websocket write side is touched.
type connection struct {
	id        string
	userID    string
	ws        *websocket.Conn
	outbound  chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newConnection(id, userID string, ws *websocket.Conn) *connection {
	return &connection{
		id:       id,
		userID:   userID,
		ws:       ws,
		outbound: make(chan Message, outboundBuffer),
		closed:   make(chan struct{}),
	}
}

// send queues a message for delivery. A full queue drops the message
// for this connection only.
func (c *connection) send(msg Message) {
	select {
	case c.outbound <- msg:
	case <-c.closed:
	default:
		logging.Warn(subsystem, "Connection %s send queue full, dropping %s", c.id, msg.Type)
	}
}

// writeLoop drains the outbound queue onto the wire. It owns the write
// side of the websocket and exits when the connection closes.
func (c *connection) writeLoop() {
	for {
		select {
		case msg := <-c.outbound:
			data, err := json.Marshal(msg)
			if err != nil {
				logging.Error(subsystem, err, "Failed to encode %s for connection %s", msg.Type, c.id)
				continue
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug(subsystem, "Write to connection %s failed: %v", c.id, err)
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() { close(c.closed) })
	c.ws.Close()
}
