//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"chatwav/domain"
	"chatwav/errors"
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	roomPrefix     = "room:"
	roomNamePrefix = "roomname:"
	memberPrefix   = "member:"
)

type IRoomRepository interface {
	CreateRoom(ctx context.Context, name, description string, creator domain.Identity) (domain.Room, error)
	GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	Touch(ctx context.Context, roomID domain.RoomID, at time.Time) error
	AddMember(ctx context.Context, roomID domain.RoomID, user domain.Identity) (bool, error)
	RemoveMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	IsMember(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (bool, error)
	Members(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error)
	CountMembers(ctx context.Context, roomID domain.RoomID) (int, error)
}

// RoomRepository stores rooms and their memberships.
// Memberships live under "member:{room_id}:{user_id}" so a room's members
// are a single prefix scan.
type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateRoom persists the room and makes its creator the first member.
func (r RoomRepository) CreateRoom(ctx context.Context, name, description string, creator domain.Identity) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	now := time.Now().UTC()
	room := domain.Room{
		ID:          domain.RoomID(uuid.NewString()),
		Name:        name,
		Description: description,
		CreatedBy:   creator.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	member := domain.Member{UserID: creator.UserID, Username: creator.Username, JoinedAt: now}

	err := r.db.Update(func(txn *badger.Txn) error {
		if exists(txn, roomNamePrefix+name) {
			return errors.ErrRoomAlreadyExists
		}
		if err := txn.Set([]byte(roomPrefix+string(room.ID)), encodeRoom(room)); err != nil {
			return err
		}
		if err := txn.Set([]byte(roomNamePrefix+name), []byte(room.ID)); err != nil {
			return err
		}
		return txn.Set(memberKey(room.ID, creator.UserID), encodeMember(member))
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r RoomRepository) GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, roomID)
		return err
	})
	return room, notFound(err, errors.ErrRoomNotFound)
}

// ListRooms returns every room, most recently active first.
func (r RoomRepository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				room, err := decodeRoom(val)
				if err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms, nil
}

// Touch moves the room's updatedAt forward, never backward.
func (r RoomRepository) Touch(ctx context.Context, roomID domain.RoomID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, roomID)
		if err != nil {
			return err
		}
		if !at.After(room.UpdatedAt) {
			return nil
		}
		room.UpdatedAt = at.UTC()
		return txn.Set([]byte(roomPrefix+string(roomID)), encodeRoom(room))
	})
	return notFound(err, errors.ErrRoomNotFound)
}

// AddMember returns false when the user already was a member.
func (r RoomRepository) AddMember(ctx context.Context, roomID domain.RoomID, user domain.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	added := false
	err := r.db.Update(func(txn *badger.Txn) error {
		if !exists(txn, roomPrefix+string(roomID)) {
			return errors.ErrRoomNotFound
		}
		key := memberKey(roomID, user.UserID)
		if _, err := txn.Get(key); err == nil {
			return nil
		}
		member := domain.Member{UserID: user.UserID, Username: user.Username, JoinedAt: time.Now().UTC()}
		added = true
		return txn.Set(key, encodeMember(member))
	})
	return added, err
}

// RemoveMember returns false when the user was not a member.
func (r RoomRepository) RemoveMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	removed := false
	err := r.db.Update(func(txn *badger.Txn) error {
		if !exists(txn, roomPrefix+string(roomID)) {
			return errors.ErrRoomNotFound
		}
		key := memberKey(roomID, userID)
		if _, err := txn.Get(key); err != nil {
			return nil
		}
		removed = true
		return txn.Delete(key)
	})
	return removed, err
}

func (r RoomRepository) IsMember(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var member bool
	err := r.db.View(func(txn *badger.Txn) error {
		member = exists(txn, string(memberKey(roomID, userID)))
		return nil
	})
	return member, err
}

// Members returns the room's members in join order.
func (r RoomRepository) Members(ctx context.Context, roomID domain.RoomID) ([]domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := memberRoomPrefix(roomID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				member, err := decodeMember(val)
				if err != nil {
					return err
				}
				members = append(members, member)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r RoomRepository) CountMembers(ctx context.Context, roomID domain.RoomID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return countPrefix(r.db, memberRoomPrefix(roomID))
}

func getRoom(txn *badger.Txn, roomID domain.RoomID) (domain.Room, error) {
	item, err := txn.Get([]byte(roomPrefix + string(roomID)))
	if err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	err = item.Value(func(val []byte) error {
		room, err = decodeRoom(val)
		return err
	})
	return room, err
}

func memberRoomPrefix(roomID domain.RoomID) []byte {
	return []byte(memberPrefix + string(roomID) + ":")
}

func memberKey(roomID domain.RoomID, userID domain.UserID) []byte {
	return append(memberRoomPrefix(roomID), string(userID)...)
}

// countPrefix counts keys without fetching values.
func countPrefix(db *badger.DB, prefix []byte) (int, error) {
	count := 0
	err := db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func encodeRoom(room domain.Room) []byte {
	var w recordWriter
	w.string(1, string(room.ID))
	w.string(2, room.Name)
	w.string(3, room.Description)
	w.string(4, string(room.CreatedBy))
	w.time(5, room.CreatedAt)
	w.time(6, room.UpdatedAt)
	return w.b
}

func decodeRoom(b []byte) (domain.Room, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:          domain.RoomID(r.string(1)),
		Name:        r.string(2),
		Description: r.string(3),
		CreatedBy:   domain.UserID(r.string(4)),
		CreatedAt:   r.time(5),
		UpdatedAt:   r.time(6),
	}, nil
}

func encodeMember(member domain.Member) []byte {
	var w recordWriter
	w.string(1, string(member.UserID))
	w.string(2, member.Username)
	w.time(3, member.JoinedAt)
	return w.b
}

func decodeMember(b []byte) (domain.Member, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.Member{}, err
	}
	return domain.Member{
		UserID:   domain.UserID(r.string(1)),
		Username: r.string(2),
		JoinedAt: r.time(3),
	}, nil
}
