package gateway

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/hub"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/metrics"
)

const maxMessageSize = 4 * 1024

// ErrClientClosed is returned by SendBytes once the connection is closed.
var ErrClientClosed = errors.New("client closed")

// ClientAdapter pumps snapshot messages to one websocket subscriber. The
// push stream is one-way: inbound text frames are ignored, only control
// frames (pong, close) matter.
type ClientAdapter struct {
	conn      net.Conn
	hub       *hub.Hub
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:       conn,
		hub:        h,
		send:       make(chan []byte, 16),
		closed:     make(chan struct{}),
		logger:     logger,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

func (c *ClientAdapter) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

// Close is idempotent; writePump owns closing the underlying conn.
func (c *ClientAdapter) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// SendBytes queues one message without blocking. A full buffer drops the
// message and keeps the connection: for a live dashboard the next cycle
// supersedes the dropped one anyway.
func (c *ClientAdapter) SendBytes(b []byte) error {
	select {
	case <-c.closed:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- b:
		return nil
	case <-c.closed:
		return ErrClientClosed
	default:
		metrics.DroppedMessages.Inc()
		c.logger.Debug("Send buffer full, dropping message", zap.String("client", c.ID()))
		return nil
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		if header.OpCode == ws.OpClose {
			break
		}
		if header.OpCode == ws.OpPong {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		}
		// Push-only stream: inbound data frames carry no commands.
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				c.Close()
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			c.conn.Write(ws.CompiledClose)
			return
		}
	}
}
