package internal

import (
	"chatwav/domain"
	"chatwav/repositories"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspector(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	// Given a room in the store
	_, err = repositories.NewRoomRepository(db).
		CreateRoom(context.Background(), "general", "", domain.Identity{UserID: "u1", Username: "alice"})
	req.NoError(err)
	inspector := NewInspector(slog.Default(), db, func() map[string]any {
		return map[string]any{"online_users": 3}
	})

	// When listing rooms only
	rec := httptest.NewRecorder()
	inspector.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/inspect?prefix=room:", nil))

	// Then the page shows the decoded room and the counters
	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "ROOM")
	req.Contains(body, "general")
	req.Contains(body, "online_users")
	req.NotContains(body, "MEMBER")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		JWTSecret: "0123456789abcdef", ConnectionBufferSize: 8, PageSize: 50, MaxMessageSize: 1024,
		GCInterval: time.Minute, HeartbeatInterval: time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"No buffer", func(c *Config) { c.ConnectionBufferSize = 0 }, true},
		{"No page size", func(c *Config) { c.PageSize = 0 }, true},
		{"No message size", func(c *Config) { c.MaxMessageSize = 0 }, true},
		{"No heartbeat", func(c *Config) { c.HeartbeatInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
