package ws

import (
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/domain/event"
	"chatwav/errors"
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client pumps frames between one websocket and the hub.
type Client struct {
	log            *slog.Logger
	conn           *websocket.Conn
	connID         domain.ConnectionID
	hub            contract.IHub
	sink           *Sink
	maxMessageSize int64
}

func NewClient(log *slog.Logger, conn *websocket.Conn, connID domain.ConnectionID,
	hub contract.IHub, sink *Sink, maxMessageSize int64) *Client {
	return &Client{
		log:            log.With("conn_id", connID),
		conn:           conn,
		connID:         connID,
		hub:            hub,
		sink:           sink,
		maxMessageSize: maxMessageSize,
	}
}

// readPump decodes inbound frames one at a time, so events of a connection
// are handled in arrival order. Leaving it disconnects the client from the hub.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c.connID)
		c.sink.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		cmd, err := event.DecodeCommand(raw)
		if err != nil {
			c.log.Debug("Invalid frame", "error", err)
			_ = c.sink.Consume(ctx, event.Error{Message: errors.ClientMessage(err, "Invalid event")})
			continue
		}
		if err := c.hub.Handle(ctx, c.connID, cmd); err != nil {
			if goerrors.Is(err, errors.ErrUnknownConnection) {
				return
			}
			c.log.Debug("Command failed", "event", cmd.CommandName(), "error", err)
		}
	}
}

// writePump is the only writer of the connection.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case e := <-c.sink.Events():
			if !c.write(e) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.sink.Done():
			c.close(websocket.CloseNormalClosure)
			return
		case <-ctx.Done():
			c.close(websocket.CloseGoingAway)
			return
		}
	}
}

func (c *Client) write(e event.DomainEvent) bool {
	frame, err := event.Encode(e)
	if err != nil {
		c.log.Error("Unable to encode event", "event", e.EventName(), "error", err)
		return true
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log.Debug("Write failed", "error", err)
		return false
	}
	return true
}

func (c *Client) close(code int) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
}

func (c *Client) logReadError(err error) {
	switch {
	case goerrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "max", c.maxMessageSize)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.log.Info("Unexpected websocket close", "error", err)
	default:
		c.log.Debug("Client disconnected", "error", err)
	}
}
