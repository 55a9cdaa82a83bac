// Package events is the in-process pub/sub fabric for domain events.
// The engine emits one event per notable state change; the WebSocket
// stream and the webhook notifier subscribe. An optional Pub/Sub-backed
// bus mirrors every event to a topic for downstream consumers.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Domain event types.
const (
	TypeReceiptParsed  = "pantry.receipt.parsed"
	TypeJobDeadLetter  = "pantry.job.dead_letter"
	TypeLotAdded       = "pantry.inventory.lot_added"
	TypeEventAppended  = "pantry.inventory.event_appended"
	TypeCheckinClosed  = "pantry.checkin.completed"
	TypeDraftFinalized = "pantry.draft.finalized"
	TypeHealthRefresh  = "pantry.health.refreshed"
	TypeExpiryCritical = "pantry.expiry.critical"
)

// Emitter publishes domain events. The in-memory Bus and the
// Pub/Sub-backed bus both satisfy it, as does NopEmitter.
type Emitter interface {
	Emit(eventType, source, householdID string, data map[string]interface{})
}

// Event is the envelope for every domain event (CloudEvents 1.0 shape).
type Event struct {
	SpecVersion string                 `json:"specversion"`
	Type        string                 `json:"type"`
	Source      string                 `json:"source"`
	ID          string                 `json:"id"`
	Time        time.Time              `json:"time"`
	HouseholdID string                 `json:"householdid,omitempty"`
	Data        map[string]interface{} `json:"data"`
}

// NewEvent builds an envelope around the given payload.
func NewEvent(eventType, source, householdID string, data map[string]interface{}) *Event {
	return &Event{
		SpecVersion: "1.0",
		Type:        eventType,
		Source:      source,
		ID:          fmt.Sprintf("ce-%d", time.Now().UnixNano()),
		Time:        time.Now().UTC(),
		HouseholdID: householdID,
		Data:        data,
	}
}

// JSON serializes the event.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

type subscription struct {
	ch          chan *Event
	householdID string          // "" matches every household
	types       map[string]bool // empty matches every type
}

// Bus is the in-memory event bus. Delivery is non-blocking: a subscriber
// whose buffer is full misses the event rather than stalling the engine.
type Bus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{bufferSize: 100}
}

// Subscribe registers interest in events for one household (empty for
// all) and an optional set of event types. The returned cancel func
// detaches the subscriber and closes its channel.
func (b *Bus) Subscribe(householdID string, eventTypes ...string) (<-chan *Event, func()) {
	sub := &subscription{
		ch:          make(chan *Event, b.bufferSize),
		householdID: householdID,
		types:       make(map[string]bool, len(eventTypes)),
	}
	for _, et := range eventTypes {
		sub.types[et] = true
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(sub.ch)
				return
			}
		}
	}
	return sub.ch, cancel
}

// Publish fans an event out to every matching subscriber.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.householdID != "" && sub.householdID != event.HouseholdID {
			continue
		}
		if len(sub.types) > 0 && !sub.types[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full, drop.
		}
	}
}

// Emit builds and publishes an event.
func (b *Bus) Emit(eventType, source, householdID string, data map[string]interface{}) {
	b.Publish(NewEvent(eventType, source, householdID, data))
}

// SubscriberCount reports the number of attached subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// NopEmitter drops every event. Used when no bus is wired.
type NopEmitter struct{}

func (NopEmitter) Emit(string, string, string, map[string]interface{}) {}

var (
	_ Emitter = (*Bus)(nil)
	_ Emitter = NopEmitter{}
)
