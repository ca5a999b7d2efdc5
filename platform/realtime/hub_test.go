package realtime

import (
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case event := <-sub.C:
		t.Fatalf("unexpected event: %+v", event)
	default:
	}
}

func TestPublishFanout(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "1"})

	for _, sub := range []*Subscription{first, second} {
		event := recvEvent(t, sub)
		if event.Table != "products" || event.Op != OpInsert {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.At.IsZero() {
			t.Fatal("publish must stamp the event time")
		}
	}
}

func TestTableFilter(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "products"})

	hub.Publish(Event{Table: "shipments", Op: OpInsert, RowId: "1"})
	expectNoEvent(t, sub)

	hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "2"})
	if event := recvEvent(t, sub); event.RowId != "2" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestColumnFilterOnUpdates(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(Filter{Table: "products", Columns: []string{"stock_quantity"}})

	hub.Publish(Event{Table: "products", Op: OpUpdate, RowId: "1", Columns: []string{"name"}})
	expectNoEvent(t, sub)

	hub.Publish(Event{Table: "products", Op: OpUpdate, RowId: "1", Columns: []string{"stock_quantity"}})
	if event := recvEvent(t, sub); event.Op != OpUpdate {
		t.Fatalf("unexpected event: %+v", event)
	}

	// inserts pass a column filter regardless
	hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "2"})
	if event := recvEvent(t, sub); event.Op != OpInsert {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestOpFilter(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(Filter{Ops: []Op{OpDelete}})

	hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "1"})
	expectNoEvent(t, sub)

	hub.Publish(Event{Table: "products", Op: OpDelete, RowId: "1"})
	if event := recvEvent(t, sub); event.Op != OpDelete {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestStalledSubscriberIsDropped(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	stalled := hub.Subscribe()
	healthy := hub.Subscribe()

	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "x"})
		// keep the healthy subscriber draining
		recvEvent(t, healthy)
	}

	// the stalled channel was closed after its buffer filled
	received := 0
	for range stalled.C {
		received++
	}
	if received != subscriberBuffer {
		t.Fatalf("expected %d buffered events before the drop, got %d", subscriberBuffer, received)
	}

	// the healthy subscriber keeps receiving
	hub.Publish(Event{Table: "products", Op: OpInsert, RowId: "y"})
	if event := recvEvent(t, healthy); event.RowId != "y" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestCloseUnblocksSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	hub.Close()
	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel after hub shutdown")
	}

	// subscribing after close yields an already-closed subscription
	late := hub.Subscribe()
	if _, ok := <-late.C; ok {
		t.Fatal("expected closed channel for late subscriber")
	}

	// closing twice is safe
	sub.Close()
	late.Close()
}
