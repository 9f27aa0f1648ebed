// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	lines         *prometheus.CounterVec // By direction (in/out)
	invalidLines  prometheus.Counter
	dispatched    prometheus.Counter
	dropped       prometheus.Counter
	handlerPanics prometheus.Counter
	subscriptions prometheus.Gauge

	requestDuration *prometheus.HistogramVec // By outcome (ok/cancelled/error)
}

// NewMetrics creates the client collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ircbot",
			Subsystem: "client",
			Name:      "lines_total",
			Help:      "Total number of protocol lines read or written",
		}, []string{"direction"}),

		invalidLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ircbot",
			Subsystem: "client",
			Name:      "invalid_lines_total",
			Help:      "Total number of inbound lines discarded as invalid",
		}),

		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ircbot",
			Subsystem: "dispatcher",
			Name:      "deliveries_total",
			Help:      "Total number of messages handed to subscription mailboxes",
		}),

		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ircbot",
			Subsystem: "dispatcher",
			Name:      "dropped_total",
			Help:      "Total number of messages dropped because a mailbox was full",
		}),

		handlerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ircbot",
			Subsystem: "dispatcher",
			Name:      "handler_panics_total",
			Help:      "Total number of recovered handler panics",
		}),

		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ircbot",
			Subsystem: "dispatcher",
			Name:      "subscriptions",
			Help:      "Number of live subscriptions",
		}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ircbot",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Time from sending a request to its final reply",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.lines, m.invalidLines, m.dispatched, m.dropped,
		m.handlerPanics, m.subscriptions, m.requestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) recordLineIn() {
	if m == nil {
		return
	}
	m.lines.WithLabelValues("in").Inc()
}

func (m *Metrics) recordLineOut() {
	if m == nil {
		return
	}
	m.lines.WithLabelValues("out").Inc()
}

func (m *Metrics) recordInvalidLine() {
	if m == nil {
		return
	}
	m.invalidLines.Inc()
}

func (m *Metrics) recordDelivery() {
	if m == nil {
		return
	}
	m.dispatched.Inc()
}

func (m *Metrics) recordDrop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) recordPanic() {
	if m == nil {
		return
	}
	m.handlerPanics.Inc()
}

func (m *Metrics) setSubscriptions(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(n))
}

func (m *Metrics) recordRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
