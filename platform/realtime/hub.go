package realtime

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one committed row change. Columns carries the changed
// column names on updates and is empty for inserts and deletes.
type Event struct {
	Table   string                 `json:"table"`
	Op      Op                     `json:"op"`
	RowId   string                 `json:"row_id"`
	Columns []string               `json:"columns,omitempty"`
	Record  map[string]interface{} `json:"record,omitempty"`
	At      time.Time              `json:"at"`
}

// Filter selects which events a subscriber receives. An empty Ops list
// matches every operation; a non-empty Columns list matches updates that
// touch at least one of the named columns (inserts and deletes always pass).
type Filter struct {
	Table   string
	Ops     []Op
	Columns []string
}

func (f Filter) Matches(event Event) bool {
	if f.Table != "" && f.Table != event.Table {
		return false
	}
	if len(f.Ops) > 0 && !slices.Contains(f.Ops, event.Op) {
		return false
	}
	if len(f.Columns) > 0 && event.Op == OpUpdate {
		touched := false
		for _, col := range f.Columns {
			if slices.Contains(event.Columns, col) {
				touched = true
				break
			}
		}
		if !touched {
			return false
		}
	}
	return true
}

const subscriberBuffer = 16

type Subscription struct {
	C       chan Event
	filters []Filter

	hub  *Hub
	once sync.Once
}

func (s *Subscription) matches(event Event) bool {
	if len(s.filters) == 0 {
		return true
	}
	for _, f := range s.filters {
		if f.Matches(event) {
			return true
		}
	}
	return false
}

// Close detaches the subscription from the hub and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.C)
	})
}

// Hub fans committed row changes out to live subscribers. Publishing never
// blocks: a subscriber that cannot keep up is dropped rather than allowed to
// stall the writers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: map[*Subscription]struct{}{}}
}

func (h *Hub) Subscribe(filters ...Filter) *Subscription {
	sub := &Subscription{
		C:       make(chan Event, subscriberBuffer),
		filters: filters,
		hub:     h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.C) })
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Publish delivers the event to every matching subscriber.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	h.mu.Lock()
	var stalled []*Subscription
	for sub := range h.subs {
		if !sub.matches(event) {
			continue
		}
		select {
		case sub.C <- event:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		delete(h.subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range stalled {
		slog.Warn("dropping stalled realtime subscriber", "table", event.Table)
		sub.once.Do(func() { close(sub.C) })
	}
}

// Close disconnects every subscriber and rejects new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = map[*Subscription]struct{}{}
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.C) })
	}
}
