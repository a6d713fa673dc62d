package services

import (
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var alice = domain.Identity{UserID: "u1", Username: "alice"}

func TestRoomService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockIRoomRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	svc := NewRoomService(slog.Default(), rooms, messages)
	ctx := context.Background()

	t.Run("should create the room with its creator as member", func(t *testing.T) {
		req := require.New(t)
		room := domain.Room{ID: "r1", Name: "general", CreatedBy: alice.UserID}
		rooms.EXPECT().CreateRoom(gomock.Any(), "general", "", alice).Return(room, nil)

		summary, err := svc.Create(ctx, alice, domain.CreateRoomRequest{Name: "  general "})

		req.NoError(err)
		req.Equal(domain.RoomSummary{Room: room, MemberCount: 1, IsMember: true}, summary)
	})

	t.Run("should reject a too short name", func(t *testing.T) {
		req := require.New(t)
		rooms.EXPECT().CreateRoom(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Create(ctx, alice, domain.CreateRoomRequest{Name: "g"})

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should report duplicate names", func(t *testing.T) {
		req := require.New(t)
		rooms.EXPECT().CreateRoom(gomock.Any(), "general", "", alice).Return(domain.Room{}, errors.ErrRoomAlreadyExists)

		_, err := svc.Create(ctx, alice, domain.CreateRoomRequest{Name: "general"})

		req.ErrorIs(err, errors.ErrRoomAlreadyExists)
	})
}

func TestRoomService_List(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockIRoomRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	svc := NewRoomService(slog.Default(), rooms, messages)
	now := time.Now().UTC()
	listed := []domain.Room{
		{ID: "r2", Name: "random", UpdatedAt: now},
		{ID: "r1", Name: "general", UpdatedAt: now.Add(-time.Hour)},
	}

	rooms.EXPECT().ListRooms(gomock.Any()).Return(listed, nil)
	rooms.EXPECT().CountMembers(gomock.Any(), domain.RoomID("r2")).Return(3, nil)
	rooms.EXPECT().CountMembers(gomock.Any(), domain.RoomID("r1")).Return(1, nil)
	messages.EXPECT().CountMessages(gomock.Any(), domain.RoomID("r2")).Return(10, nil)
	messages.EXPECT().CountMessages(gomock.Any(), domain.RoomID("r1")).Return(0, nil)
	rooms.EXPECT().IsMember(gomock.Any(), alice.UserID, domain.RoomID("r2")).Return(false, nil)
	rooms.EXPECT().IsMember(gomock.Any(), alice.UserID, domain.RoomID("r1")).Return(true, nil)

	summaries, err := svc.List(context.Background(), alice.UserID)

	req.NoError(err)
	req.Equal([]domain.RoomSummary{
		{Room: listed[0], MemberCount: 3, MessageCount: 10, IsMember: false},
		{Room: listed[1], MemberCount: 1, MessageCount: 0, IsMember: true},
	}, summaries)
}

func TestRoomService_Get_Not_Found(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockIRoomRepository(ctrl)
	svc := NewRoomService(slog.Default(), rooms, mocks.NewMockIMessageRepository(ctrl))

	rooms.EXPECT().GetRoom(gomock.Any(), domain.RoomID("ghost")).Return(domain.Room{}, errors.ErrRoomNotFound)

	_, err := svc.Get(context.Background(), "ghost")

	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomService_Leave(t *testing.T) {
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockIRoomRepository(ctrl)
	svc := NewRoomService(slog.Default(), rooms, mocks.NewMockIMessageRepository(ctrl))
	ctx := context.Background()

	t.Run("should leave a joined room", func(t *testing.T) {
		rooms.EXPECT().RemoveMember(gomock.Any(), domain.RoomID("r1"), alice.UserID).Return(true, nil)
		require.NoError(t, svc.Leave(ctx, alice.UserID, "r1"))
	})

	t.Run("should refuse when not a member", func(t *testing.T) {
		rooms.EXPECT().RemoveMember(gomock.Any(), domain.RoomID("r1"), alice.UserID).Return(false, nil)
		require.ErrorIs(t, svc.Leave(ctx, alice.UserID, "r1"), errors.ErrNotAMember)
	})

	t.Run("should refuse when the room is gone", func(t *testing.T) {
		rooms.EXPECT().RemoveMember(gomock.Any(), domain.RoomID("ghost"), alice.UserID).Return(false, errors.ErrRoomNotFound)
		require.ErrorIs(t, svc.Leave(ctx, alice.UserID, "ghost"), errors.ErrNotAMember)
	})
}
