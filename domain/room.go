package domain

import "time"

type RoomID string

type Room struct {
	ID          RoomID
	Name        string
	Description string
	CreatedBy   UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is a user allowed to join and post in a room.
type Member struct {
	UserID   UserID
	Username string
	JoinedAt time.Time
}

// RoomSummary is a room as listed for a given user.
type RoomSummary struct {
	Room
	MemberCount  int
	MessageCount int
	IsMember     bool
}

type RoomDetails struct {
	Room
	MemberCount  int
	MessageCount int
	Members      []Member
}
