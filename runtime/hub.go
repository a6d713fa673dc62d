// Package runtime holds the live state of the chat: which connections exist,
// which rooms they joined, who is online, and the hub fanning events out to them.
// It contains no transport or storage code.
package runtime

import (
	"chatwav/contract"
	"chatwav/domain"
	"chatwav/domain/event"
	"chatwav/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type session struct {
	mu       sync.Mutex // held for the whole handling of one event
	identity domain.Identity
	sink     contract.EventSink
	closed   bool
}

// Hub applies client commands to the registry and presence, and delivers
// the resulting events. Lock order: session.mu, then Hub.mu, then sessionsMu.
type Hub struct {
	log          *slog.Logger
	verifier     contract.IdentityVerifier
	memberships  contract.MembershipStore
	messages     contract.MessageStore
	rooms        contract.RoomStore
	registry     *Registry
	presence     *Presence
	storeTimeout time.Duration
	sinkTimeout  time.Duration

	// mu serialises mutate + snapshot recipients + deliver
	mu         sync.Mutex
	sessionsMu sync.RWMutex
	sessions   map[domain.ConnectionID]*session
}

func NewHub(log *slog.Logger, verifier contract.IdentityVerifier,
	memberships contract.MembershipStore, messages contract.MessageStore, rooms contract.RoomStore,
	registry *Registry, presence *Presence, storeTimeout, sinkTimeout time.Duration) *Hub {
	return &Hub{
		log:          log,
		verifier:     verifier,
		memberships:  memberships,
		messages:     messages,
		rooms:        rooms,
		registry:     registry,
		presence:     presence,
		storeTimeout: storeTimeout,
		sinkTimeout:  sinkTimeout,
		sessions:     make(map[domain.ConnectionID]*session),
	}
}

// Connect authenticates token and registers the connection.
// The first connection of a user announces it online to everyone, itself included.
func (h *Hub) Connect(ctx context.Context, connID domain.ConnectionID, token string, sink contract.EventSink) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, errors.ErrUnauthenticated
	}
	identity, err := h.verifier.Verify(ctx, token)
	if err != nil {
		if goerrors.Is(err, errors.ErrUnauthenticated) || goerrors.Is(err, errors.ErrInvalidToken) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.registry.Register(connID, identity); err != nil {
		return domain.Identity{}, err
	}
	h.sessionsMu.Lock()
	h.sessions[connID] = &session{identity: identity, sink: sink}
	h.sessionsMu.Unlock()

	h.log.Debug("Connection registered", "conn_id", connID, "user_id", identity.UserID)

	if h.presence.MarkOnline(identity, connID) {
		h.deliver(ctx, h.registry.Connections(), event.UserOnline{
			UserID:   identity.UserID,
			Username: identity.Username,
		})
	}
	return identity, nil
}

// Handle applies one command issued on connID. Validation and store failures
// are reported to that connection only and returned; the connection stays open.
func (h *Hub) Handle(ctx context.Context, connID domain.ConnectionID, cmd event.Command) error {
	if cmd == nil {
		return errors.ErrInvalidPayload
	}
	s := h.session(connID)
	if s == nil {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}

	var (
		err      error
		fallback = "Something went wrong"
	)
	switch c := cmd.(type) {
	case event.JoinRoom:
		fallback = "Failed to join room"
		err = h.join(ctx, connID, s.identity, c.RoomID)
	case event.LeaveRoom:
		err = h.leave(ctx, connID, c.RoomID)
	case event.SendMessage:
		fallback = "Failed to send message"
		err = h.send(ctx, s.identity, c.RoomID, c.Content)
	case event.Typing:
		err = h.relay(ctx, connID, c.RoomID, event.UserTyping{
			UserID:   s.identity.UserID,
			Username: s.identity.Username,
			RoomID:   c.RoomID,
		})
	case event.StopTyping:
		err = h.relay(ctx, connID, c.RoomID, event.UserStoppedTyping{
			UserID: s.identity.UserID,
			RoomID: c.RoomID,
		})
	default:
		err = fmt.Errorf("%w: %T", errors.ErrUnknownEvent, cmd)
	}

	if err != nil && !goerrors.Is(err, errors.ErrUnknownConnection) {
		h.log.Debug("Command rejected", "conn_id", connID, "user_id", s.identity.UserID,
			"room_id", cmd.Room(), "error", err)
		h.consume(ctx, connID, s.sink, event.Error{Message: errors.ClientMessage(err, fallback)})
	}
	return err
}

// Disconnect removes every trace of connID. Safe to call more than once,
// and from several goroutines: cleanup runs exactly once.
func (h *Hub) Disconnect(connID domain.ConnectionID) {
	s := h.session(connID)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	ctx := context.Background()
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, existed := h.registry.Unregister(connID)
	h.sessionsMu.Lock()
	delete(h.sessions, connID)
	h.sessionsMu.Unlock()
	if !existed {
		return
	}

	for _, roomID := range rooms {
		h.broadcastRoomUsers(ctx, roomID)
	}
	if h.presence.MarkOffline(s.identity.UserID, connID) {
		h.deliver(ctx, h.registry.Connections(), event.UserOffline{
			UserID:   s.identity.UserID,
			Username: s.identity.Username,
		})
	}
	h.log.Debug("Connection closed", "conn_id", connID, "user_id", s.identity.UserID, "rooms", len(rooms))
}

func (h *Hub) join(ctx context.Context, connID domain.ConnectionID, identity domain.Identity, roomID domain.RoomID) error {
	if err := h.authorize(ctx, identity.UserID, roomID); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.registry.AddRoom(connID, roomID); err != nil {
		return err
	}
	h.broadcastRoomUsers(ctx, roomID)
	return nil
}

func (h *Hub) leave(ctx context.Context, connID domain.ConnectionID, roomID domain.RoomID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed, err := h.registry.RemoveRoom(connID, roomID)
	if err != nil || !removed {
		return err
	}
	h.broadcastRoomUsers(ctx, roomID)
	return nil
}

// send persists before broadcasting: a failed write broadcasts nothing.
func (h *Hub) send(ctx context.Context, identity domain.Identity, roomID domain.RoomID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.ErrEmptyContent
	}
	if err := h.authorize(ctx, identity.UserID, roomID); err != nil {
		return err
	}

	storeCtx, cancel := h.storeContext(ctx)
	defer cancel()
	msg, err := h.messages.Append(storeCtx, roomID, identity, content)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if err := h.rooms.Touch(storeCtx, roomID, msg.CreatedAt); err != nil {
		h.log.Warn("Unable to touch room", "room_id", roomID, "error", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver(ctx, h.registry.ConnectionsJoined(roomID), event.NewMessageFrom(msg))
	return nil
}

// relay forwards a typing signal to the other connections joined to roomID.
func (h *Hub) relay(ctx context.Context, from domain.ConnectionID, roomID domain.RoomID, evt event.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	recipients := h.registry.ConnectionsJoined(roomID)
	others := make([]domain.ConnectionID, 0, len(recipients))
	for _, connID := range recipients {
		if connID != from {
			others = append(others, connID)
		}
	}
	h.deliver(ctx, others, evt)
	return nil
}

func (h *Hub) authorize(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error {
	storeCtx, cancel := h.storeContext(ctx)
	defer cancel()
	ok, err := h.memberships.IsMember(storeCtx, userID, roomID)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrNotAMember, roomID)
	}
	return nil
}

// broadcastRoomUsers must be called with h.mu held.
func (h *Hub) broadcastRoomUsers(ctx context.Context, roomID domain.RoomID) {
	h.deliver(ctx, h.registry.ConnectionsJoined(roomID), event.RoomUsers{
		RoomID: roomID,
		Users:  h.presence.OnlineUsersInRoom(roomID, h.registry),
	})
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(ctx context.Context, recipients []domain.ConnectionID, evt event.DomainEvent) {
	h.sessionsMu.RLock()
	sinks := make([]contract.EventSink, 0, len(recipients))
	ids := make([]domain.ConnectionID, 0, len(recipients))
	for _, connID := range recipients {
		if s, ok := h.sessions[connID]; ok {
			sinks = append(sinks, s.sink)
			ids = append(ids, connID)
		}
	}
	h.sessionsMu.RUnlock()

	for i, sink := range sinks {
		h.consume(ctx, ids[i], sink, evt)
	}
}

func (h *Hub) consume(ctx context.Context, connID domain.ConnectionID, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := withTimeout(context.WithoutCancel(ctx), h.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		h.log.Debug("Event not delivered", "conn_id", connID, "event", evt.EventName(), "error", err)
	}
}

func (h *Hub) session(connID domain.ConnectionID) *session {
	h.sessionsMu.RLock()
	defer h.sessionsMu.RUnlock()
	return h.sessions[connID]
}

func (h *Hub) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, h.storeTimeout)
}

// withTimeout treats a non-positive timeout as no timeout.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
