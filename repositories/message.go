//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"chatwav/domain"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	Append(ctx context.Context, roomID domain.RoomID, author domain.Identity, content string) (domain.Message, error)
	Page(ctx context.Context, roomID domain.RoomID, cursor *string, pageSize int) (domain.MessagePage, error)
	CountMessages(ctx context.Context, roomID domain.RoomID) (int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// Append assigns the message id and timestamp, then persists it.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps chronological order lexicographic.
//  2. The UUID disambiguates messages sent within the same nanosecond.
func (m MessageRepository) Append(ctx context.Context, roomID domain.RoomID, author domain.Identity, content string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		Author:    domain.Author{ID: author.UserID, Username: author.Username},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	key := messageKey(message)
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, encodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Page walks a room's history backwards from cursor, newest first.
// The cursor is the "{timestamp}:{uuid}" suffix of the last key returned.
func (m MessageRepository) Page(ctx context.Context, roomID domain.RoomID, cursor *string, pageSize int) (domain.MessagePage, error) {
	if err := ctx.Err(); err != nil {
		return domain.MessagePage{}, err
	}
	if pageSize <= 0 {
		return domain.MessagePage{}, fmt.Errorf("invalid page size %d", pageSize)
	}
	page := domain.MessagePage{Messages: make([]domain.Message, 0, pageSize)}
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messageRoomPrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key of the room
			seekKey = append(append([]byte{}, prefix...), 0xFF)
		default:
			seekKey = append(append([]byte{}, prefix...), *cursor...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(page.Messages) == pageSize {
				page.HasMore = true
				return nil
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				message, err := decodeMessage(val)
				if err != nil {
					return err
				}
				page.Messages = append(page.Messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.MessagePage{}, err
	}
	if page.HasMore {
		page.NextCursor = &lastKey
		m.log.Debug(fmt.Sprintf("Page of %d messages reached", pageSize), "room_id", roomID)
	}
	return page, nil
}

func (m MessageRepository) CountMessages(ctx context.Context, roomID domain.RoomID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return countPrefix(m.db, messageRoomPrefix(roomID))
}

func messageRoomPrefix(roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("%s%s:", messagePrefix, roomID))
}

func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", messagePrefix, message.RoomID, message.CreatedAt.UnixNano(), message.ID))
}

func encodeMessage(message domain.Message) []byte {
	var w recordWriter
	w.string(1, message.ID.String())
	w.string(2, string(message.RoomID))
	w.string(3, string(message.Author.ID))
	w.string(4, message.Author.Username)
	w.string(5, message.Content)
	w.time(6, message.CreatedAt)
	return w.b
}

func decodeMessage(b []byte) (domain.Message, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.Parse(r.string(1))
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		RoomID:    domain.RoomID(r.string(2)),
		Author:    domain.Author{ID: domain.UserID(r.string(3)), Username: r.string(4)},
		Content:   r.string(5),
		CreatedAt: r.time(6),
	}, nil
}
