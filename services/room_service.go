package services

import (
	"chatwav/auth"
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/repositories"
	"context"
	goerrors "errors"
	"log/slog"
	"strings"
)

// RoomService manages rooms and durable memberships. Membership here is what
// the hub checks before letting a connection join a room or post in it.
type RoomService struct {
	log      *slog.Logger
	rooms    repositories.IRoomRepository
	messages repositories.IMessageRepository
}

func NewRoomService(log *slog.Logger, rooms repositories.IRoomRepository, messages repositories.IMessageRepository) *RoomService {
	return &RoomService{log: log, rooms: rooms, messages: messages}
}

// Create makes creator the first member of the new room.
func (s *RoomService) Create(ctx context.Context, creator domain.Identity, req domain.CreateRoomRequest) (domain.RoomSummary, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := auth.ValidateStruct(req); err != nil {
		return domain.RoomSummary{}, err
	}

	room, err := s.rooms.CreateRoom(ctx, req.Name, req.Description, creator)
	if err != nil {
		return domain.RoomSummary{}, err
	}
	s.log.Info("Room created", "room_id", room.ID, "user_id", creator.UserID)
	return domain.RoomSummary{Room: room, MemberCount: 1, MessageCount: 0, IsMember: true}, nil
}

// List returns every room, most recently active first, as seen by viewer.
func (s *RoomService) List(ctx context.Context, viewer domain.UserID) ([]domain.RoomSummary, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary := domain.RoomSummary{Room: room}
		if summary.MemberCount, summary.MessageCount, err = s.counts(ctx, room.ID); err != nil {
			return nil, err
		}
		if summary.IsMember, err = s.rooms.IsMember(ctx, viewer, room.ID); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *RoomService) Get(ctx context.Context, roomID domain.RoomID) (domain.RoomDetails, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.RoomDetails{}, err
	}
	members, err := s.rooms.Members(ctx, roomID)
	if err != nil {
		return domain.RoomDetails{}, err
	}
	_, messageCount, err := s.counts(ctx, roomID)
	if err != nil {
		return domain.RoomDetails{}, err
	}
	return domain.RoomDetails{
		Room:         room,
		MemberCount:  len(members),
		MessageCount: messageCount,
		Members:      members,
	}, nil
}

// Join returns false when the user already was a member.
func (s *RoomService) Join(ctx context.Context, user domain.Identity, roomID domain.RoomID) (bool, error) {
	return s.rooms.AddMember(ctx, roomID, user)
}

// Leave fails with ErrNotAMember when there is no membership to remove,
// including when the room does not exist.
func (s *RoomService) Leave(ctx context.Context, userID domain.UserID, roomID domain.RoomID) error {
	removed, err := s.rooms.RemoveMember(ctx, roomID, userID)
	if goerrors.Is(err, errors.ErrRoomNotFound) || (err == nil && !removed) {
		return errors.ErrNotAMember
	}
	return err
}

func (s *RoomService) counts(ctx context.Context, roomID domain.RoomID) (members, messages int, err error) {
	if members, err = s.rooms.CountMembers(ctx, roomID); err != nil {
		return 0, 0, err
	}
	if messages, err = s.messages.CountMessages(ctx, roomID); err != nil {
		return 0, 0, err
	}
	return members, messages, nil
}
