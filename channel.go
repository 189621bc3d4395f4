package main

import (
	"sync"
)

type message struct {
	author string
	text   string
}

// subscription is one consumer's position in a channel's message stream.
// Messages arrive on send in publish order. drop is closed when the
// subscription is cut off, either because it fell a full buffer behind or
// because the hub shut down.
type subscription struct {
	ch   *channel
	send chan message
	drop chan struct{}
	once sync.Once
}

func (s *subscription) messages() <-chan message {
	return s.send
}

func (s *subscription) dropped() <-chan struct{} {
	return s.drop
}

func (s *subscription) cut() {
	s.once.Do(func() { close(s.drop) })
}

type subscriptions map[*subscription]interface {
}

type channel struct {
	room string
	size int
	m    *metrics

	mu            sync.Mutex // Protects subscriptions, serializes publish
	subscriptions subscriptions
}

func newChannel(room string, size int, m *metrics) *channel {
	if size <= 0 {
		size = defaultBuffer
	}
	return &channel{
		room:          room,
		size:          size,
		m:             m,
		subscriptions: make(subscriptions),
	}
}

func (c *channel) subscribe() *subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &subscription{
		ch:   c,
		send: make(chan message, c.size),
		drop: make(chan struct{}),
	}
	c.subscriptions[sub] = nil
	return sub
}

// unsubscribe removes sub and reports whether the channel is now empty.
func (c *channel) unsubscribe(sub *subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subscriptions[sub]; ok {
		delete(c.subscriptions, sub)
		sub.cut()
	}
	return len(c.subscriptions) == 0
}

// publish copies msg to every live subscription and returns how many took
// it. A subscription with a full buffer is dropped instead of blocking.
func (c *channel) publish(msg message) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	delivered := 0
	for sub := range c.subscriptions {
		select {
		case sub.send <- msg:
			delivered++
		default:
			delete(c.subscriptions, sub)
			sub.cut()
			c.m.incr("lagged", 1)
		}
	}
	c.m.incr("published", 1)
	return delivered
}

func (c *channel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions)
}

// closeAll drops every subscription.
func (c *channel) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for sub := range c.subscriptions {
		delete(c.subscriptions, sub)
		sub.cut()
	}
}
