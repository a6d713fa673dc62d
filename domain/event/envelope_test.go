package event

import (
	"chatwav/domain"
	"chatwav/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Command
		wantErr error
	}{
		{"Join", `{"event":"join-room","data":{"roomId":"r1"}}`, JoinRoom{RoomID: "r1"}, nil},
		{"Send", `{"event":"send-message","data":{"roomId":"r1","content":" hi "}}`, SendMessage{RoomID: "r1", Content: " hi "}, nil},
		{"Stop typing", `{"event":"stop-typing","data":{"roomId":"r1"}}`, StopTyping{RoomID: "r1"}, nil},
		{"Not json", `hello`, nil, errors.ErrInvalidPayload},
		{"Unknown event", `{"event":"new-message","data":{"roomId":"r1"}}`, nil, errors.ErrUnknownEvent},
		{"Missing room", `{"event":"typing","data":{}}`, nil, errors.ErrInvalidPayload},
		{"Wrong data type", `{"event":"leave-room","data":{"roomId":42}}`, nil, errors.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := DecodeCommand([]byte(tt.raw))
			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, cmd)
		})
	}
}

func TestEncode_Uses_Wire_Names(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(UserStoppedTyping{UserID: "u1", RoomID: "r1"})
	req.NoError(err)
	req.JSONEq(`{"event":"stop-typing","data":{"userId":"u1","roomId":"r1"}}`, string(frame))

	frame, err = Encode(NewMessage{
		ID: "m1", Content: "hi", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), RoomID: "r1",
		User: domain.Author{ID: "u1", Username: "alice"},
	})
	req.NoError(err)
	req.JSONEq(`{"event":"new-message","data":{"id":"m1","content":"hi","createdAt":"2026-01-02T03:04:05Z",
		"roomId":"r1","user":{"id":"u1","username":"alice"}}}`, string(frame))

	frame, err = EncodeCommand(JoinRoom{RoomID: "r1"})
	req.NoError(err)
	cmd, err := DecodeCommand(frame)
	req.NoError(err)
	req.Equal(JoinRoom{RoomID: "r1"}, cmd)
}
