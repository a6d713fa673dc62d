package repositories

import (
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// RecordView is a human readable rendering of one badger entry.
type RecordView struct {
	Key    string
	Type   string
	At     time.Time
	Entity string
	Detail string
}

// DescribeRecord decodes an entry according to its key prefix. Unknown or
// corrupted entries are reported as RAW rather than failing.
func DescribeRecord(key string, value []byte) RecordView {
	view := RecordView{Key: key, Type: "RAW", Detail: rawDetail(value)}
	switch {
	case strings.HasPrefix(key, userPrefix):
		if user, err := decodeUser(value); err == nil {
			view.Type, view.At, view.Entity = "USER", user.CreatedAt, string(user.ID)
			view.Detail = user.Username + " <" + user.Email + ">"
		}
	case strings.HasPrefix(key, roomPrefix):
		if room, err := decodeRoom(value); err == nil {
			view.Type, view.At, view.Entity = "ROOM", room.UpdatedAt, string(room.ID)
			view.Detail = room.Name
		}
	case strings.HasPrefix(key, memberPrefix):
		if member, err := decodeMember(value); err == nil {
			view.Type, view.At, view.Entity = "MEMBER", member.JoinedAt, string(member.UserID)
			view.Detail = member.Username
		}
	case strings.HasPrefix(key, messagePrefix):
		if message, err := decodeMessage(value); err == nil {
			view.Type, view.At, view.Entity = "MESSAGE", message.CreatedAt, message.ID.String()
			view.Detail = message.Author.Username + ": " + message.Content
		}
	case strings.HasPrefix(key, emailPrefix),
		strings.HasPrefix(key, usernamePrefix),
		strings.HasPrefix(key, roomNamePrefix):
		view.Type, view.Entity, view.Detail = "INDEX", string(value), "-> "+string(value)
	}
	return view
}

// Scan walks every entry under prefix in key order.
func Scan(db *badger.DB, prefix string, fn func(RecordView)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				fn(DescribeRecord(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func rawDetail(value []byte) string {
	const limit = 48
	if len(value) > limit {
		return string(value[:limit]) + "..."
	}
	return string(value)
}
