package runtime

import (
	"chatwav/domain"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_Symmetry_Over_Many_Connections(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	const n = 5

	// When alice opens n connections
	for i := 0; i < n; i++ {
		first := presence.MarkOnline(alice, domain.ConnectionID(fmt.Sprintf("c%d", i)))
		// Then only the first one reports her as newly online
		req.Equal(i == 0, first)
	}
	req.True(presence.IsOnline(alice.UserID))

	// When she closes them one by one
	for i := 0; i < n; i++ {
		last := presence.MarkOffline(alice.UserID, domain.ConnectionID(fmt.Sprintf("c%d", i)))
		// Then only the last one reports her as offline
		req.Equal(i == n-1, last)
	}
	req.False(presence.IsOnline(alice.UserID))
	req.Empty(presence.OnlineUsers())
}

func TestPresence_MarkOffline_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	presence.MarkOnline(alice, "c1")

	req.False(presence.MarkOffline(alice.UserID, "c2"))
	req.False(presence.MarkOffline(bob.UserID, "c1"))
	req.True(presence.IsOnline(alice.UserID))
}

func TestPresence_OnlineUsers_Order(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	presence.MarkOnline(bob, "c1")
	presence.MarkOnline(alice, "c2")
	presence.MarkOnline(bob, "c3")

	req.Equal([]domain.Identity{bob, alice}, presence.OnlineUsers())
}

func TestPresence_OnlineUsersInRoom_Deduplicates(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	presence := NewPresence()

	// Given bob joined twice from two tabs and alice once in between
	for _, c := range []struct {
		id       domain.ConnectionID
		identity domain.Identity
	}{{"c1", bob}, {"c2", alice}, {"c3", bob}} {
		req.NoError(registry.Register(c.id, c.identity))
		req.NoError(registry.AddRoom(c.id, "general"))
	}

	// Then each user is listed once, in first-seen order
	req.Equal([]domain.Identity{bob, alice}, presence.OnlineUsersInRoom("general", registry))

	// And an empty room yields an empty, non-nil list
	users := presence.OnlineUsersInRoom("random", registry)
	req.NotNil(users)
	req.Empty(users)
}
