// Package ws is the websocket transport of the hub: handshake, frame
// decoding, and one outbound queue per connection.
package ws

import (
	"chatwav/auth"
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/errors"
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler authenticates the handshake, registers the connection with the hub
// and then upgrades. Connections are closed when ctx is canceled.
type Handler struct {
	ctx            context.Context
	log            *slog.Logger
	hub            contract.IHub
	upgrader       websocket.Upgrader
	bufferSize     int
	maxMessageSize int64
}

func NewHandler(ctx context.Context, log *slog.Logger, hub contract.IHub, origins OriginPolicy,
	bufferSize int, maxMessageSize int64) *Handler {
	return &Handler{
		ctx: ctx,
		log: log,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		bufferSize:     bufferSize,
		maxMessageSize: maxMessageSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connID := domain.ConnectionID(uuid.NewString())
	sink := NewSink(h.bufferSize)

	identity, err := h.hub.Connect(r.Context(), connID, auth.BearerToken(r), sink)
	if err != nil {
		h.reject(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client
		h.log.Debug("Websocket upgrade failed", "conn_id", connID, "error", err)
		h.hub.Disconnect(connID)
		sink.Close()
		return
	}
	h.log.Info("Websocket connected", "conn_id", connID, "user_id", identity.UserID)

	client := NewClient(h.log, conn, connID, h.hub, sink, h.maxMessageSize)
	go client.writePump(h.ctx)
	client.readPump(h.ctx)
}

func (h *Handler) reject(w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"
	switch {
	case goerrors.Is(err, errors.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "Authentication required"
	case goerrors.Is(err, errors.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "Invalid token"
	default:
		h.log.Error("Unable to register connection", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
