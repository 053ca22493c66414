package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	session     *session.Session
	SessionID   string
	ClientID    string
	DisplayName string
}

func NewClient(hub *Hub, conn *websocket.Conn, s *session.Session, clientID, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		session:     s,
		SessionID:   s.ID,
		ClientID:    clientID,
		DisplayName: displayName,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "client", c.ClientID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		}

		msg.ClientID = c.ClientID
		msg.SessionID = c.SessionID

		c.hub.handleMessage(ctx, c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg for the client. Messages are dropped when the client lags
// behind by more than the send buffer.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID)
	}
}
