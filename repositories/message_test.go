package repositories

import (
	"chatwav/domain"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Append_Assigns_Id_And_Time(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default())

	message, err := repository.Append(context.Background(), "general", alice, "hello")

	req.NoError(err)
	req.NotEmpty(message.ID)
	req.False(message.CreatedAt.IsZero())
	req.Equal("alice", message.Author.Username)
}

func TestMessageRepository_Page_Newest_First_With_Cursor(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())
	for i := 0; i < 5; i++ {
		_, err := repository.Append(ctx, "general", alice, fmt.Sprintf("m%d", i))
		req.NoError(err)
		time.Sleep(time.Millisecond)
	}
	// Noise in another room
	_, err := repository.Append(ctx, "random", bob, "elsewhere")
	req.NoError(err)

	// When reading the first page of 2
	page, err := repository.Page(ctx, "general", nil, 2)
	req.NoError(err)
	req.Equal([]string{"m4", "m3"}, contents(page.Messages))
	req.True(page.HasMore)
	req.NotNil(page.NextCursor)

	// When following the cursor
	page, err = repository.Page(ctx, "general", page.NextCursor, 2)
	req.NoError(err)
	req.Equal([]string{"m2", "m1"}, contents(page.Messages))
	req.True(page.HasMore)

	page, err = repository.Page(ctx, "general", page.NextCursor, 2)
	req.NoError(err)
	req.Equal([]string{"m0"}, contents(page.Messages))
	req.False(page.HasMore)
	req.Nil(page.NextCursor)

	count, err := repository.CountMessages(ctx, "general")
	req.NoError(err)
	req.Equal(5, count)
}

func TestMessageRepository_Page_Empty_Room(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default())

	page, err := repository.Page(context.Background(), "general", nil, 50)

	req.NoError(err)
	req.NotNil(page.Messages)
	req.Empty(page.Messages)
	req.False(page.HasMore)
}

func TestParseRecord_Rejects_Truncated_Value(t *testing.T) {
	req := require.New(t)
	var w recordWriter
	w.string(1, "a long enough value")

	_, err := parseRecord(w.b[:len(w.b)-3])

	req.Error(err)
}

func contents(messages []domain.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
