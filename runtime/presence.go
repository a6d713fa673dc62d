package runtime

import (
	"chatwav/domain"
	"sync"
)

type presenceEntry struct {
	identity    domain.Identity
	connections Set
}

// Presence counts live connections per user. A user is online while
// at least one of its connections is registered.
type Presence struct {
	mu      sync.Mutex
	entries map[domain.UserID]*presenceEntry
	order   []domain.UserID
}

func NewPresence() *Presence {
	return &Presence{entries: make(map[domain.UserID]*presenceEntry)}
}

// MarkOnline returns true when connID is the first connection of the user.
func (p *Presence) MarkOnline(identity domain.Identity, connID domain.ConnectionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[identity.UserID]
	if !ok {
		entry = &presenceEntry{identity: identity, connections: make(Set)}
		p.entries[identity.UserID] = entry
		p.order = append(p.order, identity.UserID)
	}
	entry.connections[connID] = struct{}{}
	return !ok
}

// MarkOffline returns true when connID was the last connection of the user.
func (p *Presence) MarkOffline(userID domain.UserID, connID domain.ConnectionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		return false
	}
	if _, known := entry.connections[connID]; !known {
		return false
	}
	delete(entry.connections, connID)
	if len(entry.connections) > 0 {
		return false
	}
	delete(p.entries, userID)
	for i, id := range p.order {
		if id == userID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

func (p *Presence) IsOnline(userID domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[userID]
	return ok
}

// OnlineUsers lists online users in the order they came online.
func (p *Presence) OnlineUsers() []domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]domain.Identity, 0, len(p.order))
	for _, userID := range p.order {
		users = append(users, p.entries[userID].identity)
	}
	return users
}

// OnlineUsersInRoom de-duplicates the owners of the connections joined to roomID,
// keeping the first-seen connection order. Never nil.
func (p *Presence) OnlineUsersInRoom(roomID domain.RoomID, registry *Registry) []domain.Identity {
	users := make([]domain.Identity, 0)
	seen := make(map[domain.UserID]struct{})
	for _, connID := range registry.ConnectionsJoined(roomID) {
		identity, ok := registry.Owner(connID)
		if !ok {
			continue
		}
		if _, dup := seen[identity.UserID]; dup {
			continue
		}
		seen[identity.UserID] = struct{}{}
		users = append(users, identity)
	}
	return users
}
