package event

import "chatwav/domain"

// Command is an event issued by a client on its connection.
type Command interface {
	CommandName() Name
	Room() domain.RoomID
}

type JoinRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (JoinRoom) CommandName() Name     { return JoinRoomName }
func (c JoinRoom) Room() domain.RoomID { return c.RoomID }

type LeaveRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (LeaveRoom) CommandName() Name     { return LeaveRoomName }
func (c LeaveRoom) Room() domain.RoomID { return c.RoomID }

type SendMessage struct {
	RoomID  domain.RoomID `json:"roomId"`
	Content string        `json:"content"`
}

func (SendMessage) CommandName() Name     { return SendMessageName }
func (c SendMessage) Room() domain.RoomID { return c.RoomID }

type Typing struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (Typing) CommandName() Name     { return TypingName }
func (c Typing) Room() domain.RoomID { return c.RoomID }

type StopTyping struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (StopTyping) CommandName() Name     { return StopTypingName }
func (c StopTyping) Room() domain.RoomID { return c.RoomID }
