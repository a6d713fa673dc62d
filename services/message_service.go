package services

import (
	"chatwav/domain"
	"chatwav/errors"
	"chatwav/repositories"
	"context"
	"fmt"
)

// MessageService serves room history to members, one page at a time.
type MessageService struct {
	rooms    repositories.IRoomRepository
	messages repositories.IMessageRepository
	pageSize int
}

func NewMessageService(rooms repositories.IRoomRepository, messages repositories.IMessageRepository, pageSize int) *MessageService {
	return &MessageService{rooms: rooms, messages: messages, pageSize: pageSize}
}

func (s *MessageService) History(ctx context.Context, userID domain.UserID, roomID domain.RoomID, cursor *string) (domain.MessagePage, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return domain.MessagePage{}, err
	}
	member, err := s.rooms.IsMember(ctx, userID, roomID)
	if err != nil {
		return domain.MessagePage{}, err
	}
	if !member {
		return domain.MessagePage{}, fmt.Errorf("%w: %s", errors.ErrNotAMember, roomID)
	}
	if cursor != nil && *cursor == "" {
		cursor = nil
	}
	return s.messages.Page(ctx, roomID, cursor, s.pageSize)
}
