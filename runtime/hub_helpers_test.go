package runtime

import (
	"chatwav/domain"
	"chatwav/domain/event"
	"chatwav/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func (s *recordingSink) names() []event.Name {
	var names []event.Name
	for _, e := range s.all() {
		names = append(names, e.EventName())
	}
	return names
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func eventsOf[T event.DomainEvent](s *recordingSink) []T {
	var out []T
	for _, e := range s.all() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

type tokenVerifier map[string]domain.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	identity, ok := v[token]
	if !ok {
		return domain.Identity{}, errors.ErrInvalidToken
	}
	return identity, nil
}

// memoryStore backs memberships, messages and rooms for hub tests.
type memoryStore struct {
	mu       sync.Mutex
	members  map[domain.RoomID]map[domain.UserID]bool
	messages []domain.Message
	touched  map[domain.RoomID]time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members: make(map[domain.RoomID]map[domain.UserID]bool),
		touched: make(map[domain.RoomID]time.Time),
	}
}

func (m *memoryStore) addMember(roomID domain.RoomID, userID domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[roomID] == nil {
		m.members[roomID] = make(map[domain.UserID]bool)
	}
	m.members[roomID][userID] = true
}

func (m *memoryStore) IsMember(_ context.Context, userID domain.UserID, roomID domain.RoomID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[roomID][userID], nil
}

func (m *memoryStore) Append(_ context.Context, roomID domain.RoomID, author domain.Identity, content string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := domain.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		Author:    domain.Author{ID: author.UserID, Username: author.Username},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memoryStore) Page(_ context.Context, roomID domain.RoomID, _ *string, _ int) (domain.MessagePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var page domain.MessagePage
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].RoomID == roomID {
			page.Messages = append(page.Messages, m.messages[i])
		}
	}
	return page, nil
}

func (m *memoryStore) Touch(_ context.Context, roomID domain.RoomID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[roomID] = at
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

var tokens = tokenVerifier{"t-alice": alice, "t-bob": bob}

func newTestHub(store *memoryStore) *Hub {
	return NewHub(slog.Default(), tokens, store, store, store,
		NewRegistry(), NewPresence(), time.Second, time.Second)
}

func connect(t *testing.T, hub *Hub, connID domain.ConnectionID, token string) *recordingSink {
	sink := &recordingSink{}
	_, err := hub.Connect(context.Background(), connID, token, sink)
	require.NoError(t, err)
	return sink
}
