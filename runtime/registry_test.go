package runtime

import (
	"chatwav/domain"
	"chatwav/errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Identity{UserID: "u1", Username: "alice"}
	bob   = domain.Identity{UserID: "u2", Username: "bob"}
)

func TestRegistry_Register_Duplicate_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a registered connection
	req.NoError(registry.Register("c1", alice))

	// When the same connection id is registered again
	err := registry.Register("c1", bob)

	// Then it is rejected and the owner is unchanged
	req.ErrorIs(err, errors.ErrDuplicateConnection)
	owner, ok := registry.Owner("c1")
	req.True(ok)
	req.Equal(alice, owner)
	req.Equal(1, registry.Len())
}

func TestRegistry_AddRoom_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("c1", alice))

	// When the connection joins the same room twice
	req.NoError(registry.AddRoom("c1", "general"))
	req.NoError(registry.AddRoom("c1", "general"))

	// Then the room is listed once
	req.Equal([]domain.RoomID{"general"}, registry.RoomsOf("c1"))
	req.Equal([]domain.ConnectionID{"c1"}, registry.ConnectionsJoined("general"))
}

func TestRegistry_AddRoom_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	err := registry.AddRoom("ghost", "general")

	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Empty(registry.ConnectionsJoined("general"))
}

func TestRegistry_RemoveRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("c1", alice))
	req.NoError(registry.AddRoom("c1", "general"))

	// When leaving a room never joined
	removed, err := registry.RemoveRoom("c1", "random")
	req.NoError(err)
	req.False(removed)

	// When leaving a joined room
	removed, err = registry.RemoveRoom("c1", "general")
	req.NoError(err)
	req.True(removed)

	// Then the room index is cleaned
	req.Empty(registry.RoomsOf("c1"))
	req.Empty(registry.ConnectionsJoined("general"))
	req.Empty(registry.roomIndex)

	_, err = registry.RemoveRoom("ghost", "general")
	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestRegistry_Unregister_Returns_Joined_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("c1", alice))
	req.NoError(registry.Register("c2", bob))
	req.NoError(registry.AddRoom("c1", "random"))
	req.NoError(registry.AddRoom("c1", "general"))
	req.NoError(registry.AddRoom("c2", "general"))

	// When the first connection goes away
	rooms, existed := registry.Unregister("c1")

	// Then every room it joined is reported and only c2 remains
	req.True(existed)
	req.Equal([]domain.RoomID{"general", "random"}, rooms)
	req.Equal([]domain.ConnectionID{"c2"}, registry.ConnectionsJoined("general"))
	req.Empty(registry.ConnectionsJoined("random"))
	req.Equal([]domain.ConnectionID{"c2"}, registry.Connections())

	// And a second unregister is a no-op
	rooms, existed = registry.Unregister("c1")
	req.False(existed)
	req.Empty(rooms)
}

func TestRegistry_Queries_Follow_Registration_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var expected []domain.ConnectionID
	for i := 0; i < 20; i++ {
		connID := domain.ConnectionID(fmt.Sprintf("c%02d", 20-i))
		expected = append(expected, connID)
		req.NoError(registry.Register(connID, alice))
		req.NoError(registry.AddRoom(connID, "general"))
	}

	req.Equal(expected, registry.Connections())
	req.Equal(expected, registry.ConnectionsJoined("general"))
}

func TestRegistry_Concurrent_Joins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		connID := domain.ConnectionID(fmt.Sprintf("c%d", i))
		req.NoError(registry.Register(connID, bob))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.AddRoom(connID, "general")
			_ = registry.AddRoom(connID, "random")
		}()
	}
	wg.Wait()

	req.Len(registry.ConnectionsJoined("general"), 50)
	req.Len(registry.ConnectionsJoined("random"), 50)
}
