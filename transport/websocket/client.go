package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-gateway/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one WebSocket connection. Reads happen on the serving goroutine,
// writes only on writeLoop.
type Client struct {
	id     string
	logger *slog.Logger
	conn   *websocket.Conn

	send      chan entity.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *Client {
	id := uuid.NewString()

	return &Client{
		id:     id,
		logger: logger.With("playerID", id),
		conn:   conn,
		send:   make(chan entity.Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (that *Client) ID() string {
	return that.id
}

// Send - queues event for writing. A client that cannot keep up is disconnected.
func (that *Client) Send(event entity.Event) {
	select {
	case <-that.done:
		return
	default:
	}

	select {
	case that.send <- event:
	default:
		that.logger.Warn("send buffer full, dropping connection", "action", event.Action)
		that.Disconnect()
	}
}

// Disconnect - asks writeLoop to flush queued events and close the connection.
func (that *Client) Disconnect() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readLoop - reads frames and passes them to handle until the connection fails or closes.
func (that *Client) readLoop(handle func(data []byte)) {
	log := that.logger.With("method", "readLoop")

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		handle(data)
	}
}

func (that *Client) writeLoop() {
	log := that.logger.With("method", "writeLoop")

	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		that.Disconnect()
		_ = that.conn.Close()
	}()

	for {
		select {
		case event := <-that.send:
			if err := that.write(event); err != nil {
				log.Debug("failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.done:
			that.flush()

			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

			return
		}
	}
}

// flush - writes whatever is still queued.
func (that *Client) flush() {
	for {
		select {
		case event := <-that.send:
			if err := that.write(event); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *Client) write(event entity.Event) error {
	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return that.conn.WriteJSON(event)
}
