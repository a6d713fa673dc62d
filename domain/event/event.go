package event

import (
	"chatwav/domain"
	"time"
)

type Name string

const (
	JoinRoomName    Name = "join-room"
	LeaveRoomName   Name = "leave-room"
	SendMessageName Name = "send-message"
	TypingName      Name = "typing"
	StopTypingName  Name = "stop-typing"

	NewMessageName  Name = "new-message"
	UserTypingName  Name = "user-typing"
	UserOnlineName  Name = "user-online"
	UserOfflineName Name = "user-offline"
	RoomUsersName   Name = "room-users"
	ErrorName       Name = "error"
)

// DomainEvent is anything the hub delivers to a connection.
type DomainEvent interface {
	EventName() Name
}

type NewMessage struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	RoomID    domain.RoomID `json:"roomId"`
	User      domain.Author `json:"user"`
}

func (NewMessage) EventName() Name { return NewMessageName }

func NewMessageFrom(m domain.Message) NewMessage {
	return NewMessage{
		ID:        m.ID.String(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
		RoomID:    m.RoomID,
		User:      m.Author,
	}
}

type UserTyping struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	RoomID   domain.RoomID `json:"roomId"`
}

func (UserTyping) EventName() Name { return UserTypingName }

// UserStoppedTyping is sent as "stop-typing", the same name the client uses.
type UserStoppedTyping struct {
	UserID domain.UserID `json:"userId"`
	RoomID domain.RoomID `json:"roomId"`
}

func (UserStoppedTyping) EventName() Name { return StopTypingName }

type UserOnline struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

func (UserOnline) EventName() Name { return UserOnlineName }

type UserOffline struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

func (UserOffline) EventName() Name { return UserOfflineName }

// RoomUsers carries the full list of users online in a room.
type RoomUsers struct {
	RoomID domain.RoomID     `json:"roomId"`
	Users  []domain.Identity `json:"users"`
}

func (RoomUsers) EventName() Name { return RoomUsersName }

// Error is only ever sent to the connection that caused it.
type Error struct {
	Message string `json:"message"`
}

func (Error) EventName() Name { return ErrorName }
