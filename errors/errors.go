package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Hub
	ErrUnauthenticated     = fmt.Errorf("authentication required")
	ErrInvalidToken        = fmt.Errorf("invalid token")
	ErrDuplicateConnection = fmt.Errorf("connection already registered")
	ErrUnknownConnection   = fmt.Errorf("unknown connection")
	ErrNotAMember          = fmt.Errorf("not a member of this room")
	ErrEmptyContent        = fmt.Errorf("message content cannot be empty")
	ErrStoreUnavailable    = fmt.Errorf("store unavailable")
	ErrUnknownEvent        = fmt.Errorf("unknown event")
	ErrInvalidPayload      = fmt.Errorf("invalid payload")

	// Accounts and rooms
	ErrValidation         = fmt.Errorf("validation failed")
	ErrUserAlreadyExists  = fmt.Errorf("email is already taken")
	ErrUsernameTaken      = fmt.Errorf("username is already taken")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrRoomAlreadyExists  = fmt.Errorf("a room with this name already exists")
)

// ClientMessage returns the text carried by an error frame sent back to the
// connection that triggered err. Unmapped errors use fallback.
func ClientMessage(err error, fallback string) string {
	switch {
	case goerrors.Is(err, ErrEmptyContent):
		return "Message content cannot be empty"
	case goerrors.Is(err, ErrNotAMember):
		return "You are not a member of this room"
	case goerrors.Is(err, ErrInvalidPayload), goerrors.Is(err, ErrUnknownEvent):
		return "Invalid event"
	default:
		return fallback
	}
}

// HTTPStatus maps a service error to the REST status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case goerrors.Is(err, ErrUnauthenticated),
		goerrors.Is(err, ErrInvalidToken),
		goerrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case goerrors.Is(err, ErrNotAMember):
		return http.StatusForbidden
	case goerrors.Is(err, ErrRoomNotFound), goerrors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, ErrUserAlreadyExists),
		goerrors.Is(err, ErrUsernameTaken),
		goerrors.Is(err, ErrRoomAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
