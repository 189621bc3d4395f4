package main

import (
	"io"
	"testing"
)

func newTestChannel(size int) *channel {
	return newChannel("/monkey", size, newMetrics(io.Discard, 0))
}

func TestChannelSubscribe(t *testing.T) {
	c := newTestChannel(16)

	// Assert no subscriptions exist
	if c.len() != 0 {
		t.Fatal("Error in test enviroment, Expectation: 0, Received:", c.len())
	}

	sub := c.subscribe()
	if c.len() != 1 {
		t.Fatal("Expectation: 1, Received:", c.len())
	}
	if sub.ch != c {
		t.Fatal("Expectation: subscription bound to its channel")
	}
}

func TestChannelPublish(t *testing.T) {
	c := newTestChannel(16)
	sub := c.subscribe()

	if n := c.publish(message{author: "monkey", text: "banana"}); n != 1 {
		t.Fatal("Expectation: 1 delivery, Received:", n)
	}
	msg := <-sub.messages()
	if msg.text != "banana" || msg.author != "monkey" {
		t.Fatal("Expectation: monkey/banana, Received:", msg)
	}

	// Publish reaches every subscription, in publish order.
	sub2 := c.subscribe()
	c.publish(message{text: "apple"})
	c.publish(message{text: "cherry"})
	for _, s := range []*subscription{sub, sub2} {
		first, second := <-s.messages(), <-s.messages()
		if first.text != "apple" || second.text != "cherry" {
			t.Fatal("Expectation: apple then cherry, Received:", first.text, second.text)
		}
	}
}

func TestChannelNoReplay(t *testing.T) {
	c := newTestChannel(16)
	early := c.subscribe()
	c.publish(message{text: "before"})
	late := c.subscribe()
	c.publish(message{text: "after"})

	if msg := <-late.messages(); msg.text != "after" {
		t.Fatal("Expectation: after, Received:", msg.text)
	}
	if len(late.messages()) != 0 {
		t.Fatal("Expectation: nothing else queued, Received:", len(late.messages()))
	}
	if len(early.messages()) != 2 {
		t.Fatal("Expectation: 2 queued, Received:", len(early.messages()))
	}
}

func TestChannelUnsubscribe(t *testing.T) {
	c := newTestChannel(16)
	sub := c.subscribe()
	other := c.subscribe()

	if empty := c.unsubscribe(sub); empty {
		t.Fatal("Expectation: channel not empty")
	}
	select {
	case <-sub.dropped():
	default:
		t.Fatal("ERR: subscription not cut")
	}
	c.publish(message{text: "banana"})
	if len(sub.messages()) != 0 {
		t.Fatal("Expectation: 0, Received:", len(sub.messages()))
	}

	if empty := c.unsubscribe(other); !empty {
		t.Fatal("Expectation: channel empty")
	}
	// Unsubscribing twice is harmless.
	c.unsubscribe(other)
}

func TestChannelLagging(t *testing.T) {
	c := newTestChannel(2)
	slow := c.subscribe()
	fast := c.subscribe()

	for _, text := range []string{"1", "2", "3"} {
		c.publish(message{text: text})
		if msg := <-fast.messages(); msg.text != text {
			t.Fatal("Expectation:", text, "Received:", msg.text)
		}
	}

	select {
	case <-slow.dropped():
	default:
		t.Fatal("Expectation: slow subscription dropped")
	}
	select {
	case <-fast.dropped():
		t.Fatal("Expectation: fast subscription kept")
	default:
	}
	if c.len() != 1 {
		t.Fatal("Expectation: 1, Received:", c.len())
	}
	if n := c.m.count("lagged"); n != 1 {
		t.Fatal("Expectation: 1 lagged, Received:", n)
	}
	// What the slow subscriber had already buffered is still readable.
	if len(slow.messages()) != 2 {
		t.Fatal("Expectation: 2 buffered, Received:", len(slow.messages()))
	}
}

func TestChannelCloseAll(t *testing.T) {
	c := newTestChannel(16)
	sub1, sub2 := c.subscribe(), c.subscribe()
	c.closeAll()

	for _, sub := range []*subscription{sub1, sub2} {
		if _, ok := <-sub.dropped(); ok {
			t.Fatal("Expectation: dropped channel closed")
		}
	}
	if c.len() != 0 {
		t.Fatal("Expectation: 0, Received:", c.len())
	}
}
