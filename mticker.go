package main

import (
	"sync"
	"time"
)

// mTicker is one time.Ticker shared by many subscribers. Chat sessions use
// it to send keepalive pings without a ticker per connection.
type mTicker struct {
	mux         sync.Mutex // Protects subscribers and stopped
	subscribers tickSubscribers
	stopped     bool
	dropped     int

	ticker *time.Ticker
	stopCh chan struct{}
}

type tickSubscribers map[*tickSubscriber]interface {
}

type tickSubscriber struct {
	tick chan time.Time
}

// creates and starts a new ticker
// that can have subscribed channels to receive
// ticks
func newMTicker(interval time.Duration) *mTicker {
	t := &mTicker{
		subscribers: make(tickSubscribers),
		ticker:      time.NewTicker(interval),
		stopCh:      make(chan struct{}),
	}
	go t.run()
	return t
}

// subscribe returns a subscriber whose channel receives ticks. Ticks that
// can't be delivered, because the subscriber is not ready to receive, are
// discarded. After stop the channel is returned already closed.
func (t *mTicker) subscribe() *tickSubscriber {
	t.mux.Lock()
	defer t.mux.Unlock()

	sub := &tickSubscriber{tick: make(chan time.Time, 1)}
	if t.stopped {
		close(sub.tick)
		return sub
	}
	t.subscribers[sub] = nil
	return sub
}

func (t *mTicker) unsubscribe(sub *tickSubscriber) {
	t.mux.Lock()
	defer t.mux.Unlock()

	if _, ok := t.subscribers[sub]; ok {
		close(sub.tick)
		delete(t.subscribers, sub)
	}
}

func (t *mTicker) len() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.subscribers)
}

// stop stops the ticker and closes all subscribed channels.
func (t *mTicker) stop() {
	t.mux.Lock()
	defer t.mux.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	for sub := range t.subscribers {
		close(sub.tick)
		delete(t.subscribers, sub)
	}
	t.ticker.Stop()
	close(t.stopCh)
}

func (t *mTicker) run() {
	for {
		select {
		case tick := <-t.ticker.C:
			t.mux.Lock()
			for sub := range t.subscribers {
				select {
				case sub.tick <- tick:
				default:
					t.dropped++
				}
			}
			t.mux.Unlock()
		case <-t.stopCh:
			return
		}
	}
}
