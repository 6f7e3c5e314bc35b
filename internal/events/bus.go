// Package events carries the consumer-facing notifications of the core:
// flow ingested, alerts raised, connection state changed. The presentation
// layer subscribes to these; the core does not know how they are displayed.
package events

import (
	"sync"

	"flowscope/internal/model"
)

// Kind discriminates the event payload.
type Kind string

const (
	KindFlowIngested     Kind = "flow_ingested"
	KindAlertsRaised     Kind = "alerts_raised"
	KindConnStateChanged Kind = "conn_state_changed"
)

// Event is one typed notification.
type Event struct {
	Kind   Kind          `json:"kind"`
	Flow   *model.FlowRecord `json:"flow,omitempty"`
	Alerts []model.Alert `json:"alerts,omitempty"`
	State  string        `json:"state,omitempty"`
}

// Subscriber receives events on a buffered channel. Delivery is best-effort:
// a full channel is skipped so publishers never block the ingestion path.
type Subscriber struct {
	C chan Event
}

// Bus fans events out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscriber]bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscriber]bool)}
}

// Subscribe registers a subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &Subscriber{C: make(chan Event, buffer)}
	b.mu.Lock()
	b.subs[sub] = true
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[sub] {
		delete(b.subs, sub)
		close(sub.C)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.C <- ev:
		default:
			// Subscriber is not keeping up, skip.
		}
	}
}

// PublishFlow publishes a flow-ingested event.
func (b *Bus) PublishFlow(flow model.FlowRecord) {
	b.Publish(Event{Kind: KindFlowIngested, Flow: &flow})
}

// PublishAlerts publishes an alerts-raised event.
func (b *Bus) PublishAlerts(alerts []model.Alert) {
	b.Publish(Event{Kind: KindAlertsRaised, Alerts: alerts})
}

// PublishState publishes a connection-state-changed event.
func (b *Bus) PublishState(state string) {
	b.Publish(Event{Kind: KindConnStateChanged, State: state})
}
