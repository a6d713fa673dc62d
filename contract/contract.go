//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chatwav/domain"
	"chatwav/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound half of a live connection.
// Consume must not block longer than ctx allows.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IdentityVerifier turns a bearer token into the identity it was issued for.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type MembershipStore interface {
	IsMember(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (bool, error)
}

type MessageStore interface {
	Append(ctx context.Context, roomID domain.RoomID, author domain.Identity, content string) (domain.Message, error)
	Page(ctx context.Context, roomID domain.RoomID, cursor *string, pageSize int) (domain.MessagePage, error)
}

type RoomStore interface {
	Touch(ctx context.Context, roomID domain.RoomID, at time.Time) error
}

// IHub is what a transport needs from the room hub.
type IHub interface {
	Connect(ctx context.Context, connID domain.ConnectionID, token string, sink EventSink) (domain.Identity, error)
	Handle(ctx context.Context, connID domain.ConnectionID, cmd event.Command) error
	Disconnect(connID domain.ConnectionID)
}

type IAuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResult, error)
	Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResult, error)
	Me(ctx context.Context, userID domain.UserID) (domain.PublicUser, error)
}

type IRoomService interface {
	Create(ctx context.Context, creator domain.Identity, req domain.CreateRoomRequest) (domain.RoomSummary, error)
	List(ctx context.Context, viewer domain.UserID) ([]domain.RoomSummary, error)
	Get(ctx context.Context, roomID domain.RoomID) (domain.RoomDetails, error)
	Join(ctx context.Context, user domain.Identity, roomID domain.RoomID) (bool, error)
	Leave(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error
}

type IMessageService interface {
	History(ctx context.Context, userID domain.UserID, roomID domain.RoomID, cursor *string) (domain.MessagePage, error)
}
