// Package events provides the change-notification bus for the job draft.
// Draft mutations are surfaced as explicit events rather than implicit
// reactive bindings, so any component can observe form activity without
// holding a reference to the form itself.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies the kind of draft activity an event describes.
type Type string

const (
	FieldChanged   Type = "field_changed"
	StepChanged    Type = "step_changed"
	UploadStaged   Type = "upload_staged"
	UploadResolved Type = "upload_resolved"
	SubmitStarted  Type = "submit_started"
	SubmitEnded    Type = "submit_ended"
)

// Event is a single draft change notification.
type Event struct {
	Type   Type
	Field  string // field name for FieldChanged, file kind for upload events
	Step   int    // active step for StepChanged
	Detail string
	Time   time.Time
}

const defaultBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks; events to a
// full subscriber channel are dropped and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Type][]chan Event
	all     []chan Event
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subs:   make(map[Type][]chan Event),
		buffer: buffer,
	}
}

// Subscribe returns a channel receiving events of one type.
func (b *Bus) Subscribe(t Type) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, b.buffer)
	b.subs[t] = append(b.subs[t], ch)
	return ch
}

// SubscribeAll returns a channel receiving every event.
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, b.buffer)
	b.all = append(b.all, ch)
	return ch
}

// Publish delivers an event to all matching subscribers without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[ev.Type] {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	for _, ch := range b.all {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// FieldChanged publishes a field-change notification.
func (b *Bus) FieldChanged(field, detail string) {
	b.Publish(Event{Type: FieldChanged, Field: field, Detail: detail})
}

// StepChanged publishes a step-transition notification.
func (b *Bus) StepChanged(step int) {
	b.Publish(Event{Type: StepChanged, Step: step})
}

// Dropped reports how many events were discarded due to full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}
