package main

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gometrics "github.com/rcrowley/go-metrics"
)

type metrics struct {
	log  io.Writer
	reg  gometrics.Registry
	tick time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newMetrics(log io.Writer, tick time.Duration) *metrics {
	return &metrics{
		log:    log,
		reg:    gometrics.NewRegistry(),
		tick:   tick,
		stopCh: make(chan struct{}),
	}
}

// start reports the registry as JSON every tick until stop is called.
func (m *metrics) start() {
	if m.tick <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(m.tick)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.writeOnce()
			case <-m.stopCh:
				return
			}
		}
	}()
}

func (m *metrics) stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.writeOnce()
	})
}

func (m *metrics) writeOnce() {
	gometrics.WriteJSONOnce(m.reg, m.log)
}

func (m *metrics) counter(name string) gometrics.Counter {
	return gometrics.GetOrRegisterCounter(name, m.reg)
}

func (m *metrics) incr(name string, i int64) {
	m.counter(name).Inc(i)
}

func (m *metrics) decr(name string, i int64) {
	m.counter(name).Dec(i)
}

func (m *metrics) count(name string) int64 {
	return m.counter(name).Count()
}

// handler serves the registry in the Prometheus exposition format.
func (m *metrics) handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(registryCollector{reg: m.reg})
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// registryCollector exports go-metrics counters and gauges as Prometheus
// gauges. It describes nothing up front so metrics registered after startup
// (per-name counters are created lazily) are still collected.
type registryCollector struct {
	reg gometrics.Registry
}

func (c registryCollector) Describe(chan<- *prometheus.Desc) {}

func (c registryCollector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Each(func(name string, i interface{}) {
		var v float64
		switch metric := i.(type) {
		case gometrics.Counter:
			v = float64(metric.Count())
		case gometrics.Gauge:
			v = float64(metric.Value())
		default:
			return
		}
		desc := prometheus.NewDesc(promName(name), "chathub "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v)
	})
}

var promReplacer = strings.NewReplacer(".", "_", "-", "_")

func promName(name string) string {
	return "chathub_" + promReplacer.Replace(name)
}
