// Package domain contains core concepts of the chat system.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

type UserID string

type ConnectionID string

// Identity is the authenticated user behind a connection.
// It never changes for the lifetime of the connection.
type Identity struct {
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
}

// User is an account as known by the user store.
type User struct {
	ID           UserID
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}
