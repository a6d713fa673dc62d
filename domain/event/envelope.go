package event

import (
	"chatwav/errors"
	"encoding/json"
	"fmt"
)

// Envelope is the JSON frame exchanged on the websocket: {"event": ..., "data": ...}.
type Envelope struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode wraps an outbound event into its frame.
func Encode(e DomainEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.EventName(), Data: data})
}

// EncodeCommand builds the frame a client sends for c.
func EncodeCommand(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: c.CommandName(), Data: data})
}

// DecodeCommand parses an inbound frame into one of the known commands.
func DecodeCommand(raw []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	var (
		cmd Command
		err error
	)
	switch env.Event {
	case JoinRoomName:
		cmd, err = decode[JoinRoom](env.Data)
	case LeaveRoomName:
		cmd, err = decode[LeaveRoom](env.Data)
	case SendMessageName:
		cmd, err = decode[SendMessage](env.Data)
	case TypingName:
		cmd, err = decode[Typing](env.Data)
	case StopTypingName:
		cmd, err = decode[StopTyping](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if cmd.Room() == "" {
		return nil, fmt.Errorf("%w: roomId is required", errors.ErrInvalidPayload)
	}
	return cmd, nil
}

func decode[T Command](data json.RawMessage) (Command, error) {
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}
