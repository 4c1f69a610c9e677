package controller

import (
	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// EventKind names what happened.
type EventKind string

const (
	EventSelected  EventKind = "selected"
	EventHydrated  EventKind = "hydrated"
	EventFailed    EventKind = "failed"
	EventChanged   EventKind = "changed"
	EventPersisted EventKind = "persisted"
	EventCleared   EventKind = "cleared"
)

// Event is published to subscribers after each transition or mutation.
type Event struct {
	Kind  EventKind
	AppID graph.ApplicationID
	State State
	Err   error
}

const subscriberBuffer = 32

// Subscribe returns a channel of events and a function that ends the
// subscription. Slow subscribers miss events rather than block the controller.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) publishLocked(kind EventKind, err error) {
	ev := Event{Kind: kind, AppID: c.current, State: c.state, Err: err}
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("Dropping event for slow subscriber.", "subscriber", id, "kind", kind)
		}
	}
}
