package main

import (
	"errors"
	"sync"
)

var errHubClosed = errors.New("hub closed")

// hub is the room registry. It lazily creates one channel per room and
// forgets the channel once its last subscription is released.
type hub struct {
	size int
	m    *metrics

	mu       sync.Mutex // Protects channels and closed
	channels channels
	closed   bool
}

type channels map[string]*channel

func newHub(m *metrics, size int) *hub {
	return &hub{
		size:     size,
		m:        m,
		channels: make(channels),
	}
}

// subscribe returns a fresh subscription to room, creating the room's
// channel if needed. Concurrent callers for the same unseen room share the
// first caller's channel.
func (h *hub) subscribe(room string) (*subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errHubClosed
	}
	c, ok := h.channels[room]
	if !ok {
		c = newChannel(room, h.size, h.m)
		h.channels[room] = c
		h.m.incr("channels", 1)
	}
	return c.subscribe(), nil
}

func (h *hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := sub.ch
	if !c.unsubscribe(sub) {
		return
	}
	// Another channel may have replaced c after it was emptied once.
	if h.channels[c.room] == c {
		delete(h.channels, c.room)
		h.m.decr("channels", 1)
	}
}

// publish sends msg to room's subscribers. A room nobody is subscribed to
// does not exist, so the message is dropped.
func (h *hub) publish(room string, msg message) int {
	h.mu.Lock()
	c, ok := h.channels[room]
	h.mu.Unlock()
	if !ok {
		h.m.incr("drops", 1)
		return 0
	}
	return c.publish(msg)
}

// rooms returns live room keys with their subscriber counts.
func (h *hub) rooms() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := make(map[string]int, len(h.channels))
	for room, c := range h.channels {
		rooms[room] = c.len()
	}
	return rooms
}

// close drops every subscription and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for room, c := range h.channels {
		c.closeAll()
		delete(h.channels, room)
		h.m.decr("channels", 1)
	}
}
