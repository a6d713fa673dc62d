package ws

import (
	"chatwav/domain/event"
	"context"
	"fmt"
	"sync"
)

var (
	ErrSinkClosed = fmt.Errorf("sink closed")
	ErrSinkFull   = fmt.Errorf("sink buffer full, event dropped")
)

// Sink is the outbound queue of one websocket connection.
// Consume never blocks: a slow client loses events rather than stalling the hub.
type Sink struct {
	events    chan event.DomainEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewSink(bufferSize int) *Sink {
	return &Sink{
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the hub, the write pump takes it from there.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSinkFull
	}
}

// Close stops the write pump. Events still queued are discarded.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}

func (s *Sink) Done() <-chan struct{} {
	return s.done
}
