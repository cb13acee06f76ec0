package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/nexus-library/internal/library"
)

// EventMsg wraps a library.Event for use as a tea.Msg.
type EventMsg struct {
	Event library.Event
}

// EventBridge adapts workflow events to bubble tea messages. It implements
// library.EventEmitter.
type EventBridge struct {
	mu     sync.Mutex
	events chan tea.Msg
	closed bool
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		events: make(chan tea.Msg, eventBuffer),
	}
}

// Emit wraps event in an EventMsg. Progress lines are dropped when the
// buffer is full; every other event waits for room.
func (b *EventBridge) Emit(event library.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	if _, ok := event.(library.TransferProgress); ok {
		select {
		case b.events <- EventMsg{Event: event}:
		default:
		}

		return
	}

	b.events <- EventMsg{Event: event}
}

// Subscribe returns the event channel.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.events
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.events
		if !ok {
			return nil
		}

		return msg
	}
}

// Close closes the event channel. Emit after Close is a no-op.
func (b *EventBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.events)
	}
}
