package main

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// viewCounter counts messages handed to a subscriber's outbound path, once
// per (message, subscriber) pair. It is backed by a go-metrics counter, so
// updates are atomic and it shows up in the metrics report as "views".
type viewCounter struct {
	c gometrics.Counter
}

func newViewCounter(m *metrics) *viewCounter {
	return &viewCounter{c: m.counter("views")}
}

func (v *viewCounter) increment() {
	v.c.Inc(1)
}

func (v *viewCounter) reset() {
	v.c.Clear()
}

func (v *viewCounter) read() int64 {
	return v.c.Count()
}
