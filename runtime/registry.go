package runtime

import (
	"chatwav/domain"
	"chatwav/errors"
	"fmt"
	"sort"
	"sync"
)

type Set map[domain.ConnectionID]struct{}

type connection struct {
	identity domain.Identity
	rooms    map[domain.RoomID]struct{}
	seq      uint64 // registration order
}

// Registry is the source of truth for live connections and the rooms
// each one has joined. roomIndex mirrors connections[*].rooms.
type Registry struct {
	mu          sync.RWMutex
	next        uint64
	connections map[domain.ConnectionID]*connection
	roomIndex   map[domain.RoomID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[domain.ConnectionID]*connection),
		roomIndex:   make(map[domain.RoomID]Set),
	}
}

// Register records a new connection with no joined rooms.
func (r *Registry) Register(connID domain.ConnectionID, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[connID]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateConnection, connID)
	}
	r.next++
	r.connections[connID] = &connection{
		identity: identity,
		rooms:    make(map[domain.RoomID]struct{}),
		seq:      r.next,
	}
	return nil
}

// Unregister removes the connection and returns the rooms it had joined, sorted.
// Unknown connections return (nil, false).
func (r *Registry) Unregister(connID domain.ConnectionID) ([]domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return nil, false
	}
	rooms := make([]domain.RoomID, 0, len(conn.rooms))
	for roomID := range conn.rooms {
		rooms = append(rooms, roomID)
		r.removeFromIndex(roomID, connID)
	}
	delete(r.connections, connID)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms, true
}

// AddRoom is idempotent.
func (r *Registry) AddRoom(connID domain.ConnectionID, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	conn.rooms[roomID] = struct{}{}
	if _, ok := r.roomIndex[roomID]; !ok {
		r.roomIndex[roomID] = make(Set)
	}
	r.roomIndex[roomID][connID] = struct{}{}
	return nil
}

// RemoveRoom reports whether the connection was actually joined to the room.
func (r *Registry) RemoveRoom(connID domain.ConnectionID, roomID domain.RoomID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return false, fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	if _, joined := conn.rooms[roomID]; !joined {
		return false, nil
	}
	delete(conn.rooms, roomID)
	r.removeFromIndex(roomID, connID)
	return true, nil
}

// removeFromIndex drops empty room entries so the index does not grow forever.
func (r *Registry) removeFromIndex(roomID domain.RoomID, connID domain.ConnectionID) {
	members, ok := r.roomIndex[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.roomIndex, roomID)
	}
}

func (r *Registry) RoomsOf(connID domain.ConnectionID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[connID]
	if !ok {
		return nil
	}
	rooms := make([]domain.RoomID, 0, len(conn.rooms))
	for roomID := range conn.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

// ConnectionsJoined returns the connections joined to roomID in registration order.
func (r *Registry) ConnectionsJoined(roomID domain.RoomID) []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.roomIndex[roomID]
	ids := make([]domain.ConnectionID, 0, len(members))
	for connID := range members {
		ids = append(ids, connID)
	}
	r.sortBySeq(ids)
	return ids
}

func (r *Registry) Owner(connID domain.ConnectionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[connID]
	if !ok {
		return domain.Identity{}, false
	}
	return conn.identity, true
}

// Connections returns every live connection in registration order.
func (r *Registry) Connections() []domain.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]domain.ConnectionID, 0, len(r.connections))
	for connID := range r.connections {
		ids = append(ids, connID)
	}
	r.sortBySeq(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// sortBySeq must be called with the lock held.
func (r *Registry) sortBySeq(ids []domain.ConnectionID) {
	sort.Slice(ids, func(i, j int) bool {
		return r.connections[ids[i]].seq < r.connections[ids[j]].seq
	})
}
