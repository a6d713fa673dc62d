// Package domain contains core concepts of the chat system.
// This file defines Message and its history page.
// Messages are immutable once persisted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Author struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// Message is a persisted chat message, the id and timestamp are assigned by the store.
type Message struct {
	ID        uuid.UUID
	RoomID    RoomID
	Author    Author
	Content   string
	CreatedAt time.Time
}

// MessagePage is a slice of a room history, newest first.
type MessagePage struct {
	Messages   []Message
	NextCursor *string
	HasMore    bool
}
