/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the instrumentation surface the engine calls into. All
// methods must be safe for concurrent use and must never block.
type Collector interface {
	// ConnAccepted records one connection admitted onto worker.
	ConnAccepted(worker int)

	// ConnRejected records one connection refused at admission time
	// because its worker was already at ThreadMaxConn.
	ConnRejected(worker int)

	// ConnClosed records one connection leaving worker, successfully or
	// not; ActiveConnections is derived from Accepted-Closed, not tracked
	// separately.
	ConnClosed(worker int)

	// RequestServed records one fully-encoded response, its HTTP status
	// and the wall-clock time from dispatch to flush.
	RequestServed(worker int, status int, elapsed time.Duration)

	// ParseError records one request that never reached a well-formed
	// state and was answered with a synthesized 400.
	ParseError(worker int)
}

type noop struct{}

// Noop is a Collector that discards every observation, used when an
// embedder never supplies one.
func Noop() Collector { return noop{} }

func (noop) ConnAccepted(int)                      {}
func (noop) ConnRejected(int)                      {}
func (noop) ConnClosed(int)                        {}
func (noop) RequestServed(int, int, time.Duration) {}
func (noop) ParseError(int)                        {}

type promCollector struct {
	accepted    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	closed      *prometheus.CounterVec
	active      *prometheus.GaugeVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	parseErrors *prometheus.CounterVec
}

// NewPrometheus builds a Collector backed by Prometheus instruments under
// the given namespace and registers them against reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewPrometheus(namespace string, reg prometheus.Registerer) Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &promCollector{
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total connections admitted onto a worker.",
		}, []string{"worker"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "rejected_total",
			Help:      "Total connections refused at admission because the worker was at capacity.",
		}, []string{"worker"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "closed_total",
			Help:      "Total connections torn down, for any reason.",
		}, []string{"worker"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Connections currently held open by a worker.",
		}, []string{"worker"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "served_total",
			Help:      "Total responses encoded, by status code.",
		}, []string{"worker", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "duration_seconds",
			Help:      "Time from request dispatch to response flush.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"worker"}),
		parseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "parse_errors_total",
			Help:      "Total requests answered with a synthesized 400 because parsing never completed.",
		}, []string{"worker"}),
	}

	reg.MustRegister(
		c.accepted, c.rejected, c.closed, c.active,
		c.requests, c.latency, c.parseErrors,
	)

	return c
}

func workerLabel(worker int) string { return strconv.Itoa(worker) }

func (c *promCollector) ConnAccepted(worker int) {
	l := workerLabel(worker)
	c.accepted.WithLabelValues(l).Inc()
	c.active.WithLabelValues(l).Inc()
}

func (c *promCollector) ConnRejected(worker int) {
	c.rejected.WithLabelValues(workerLabel(worker)).Inc()
}

func (c *promCollector) ConnClosed(worker int) {
	l := workerLabel(worker)
	c.closed.WithLabelValues(l).Inc()
	c.active.WithLabelValues(l).Dec()
}

func (c *promCollector) RequestServed(worker int, status int, elapsed time.Duration) {
	l := workerLabel(worker)
	c.requests.WithLabelValues(l, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(l).Observe(elapsed.Seconds())
}

func (c *promCollector) ParseError(worker int) {
	c.parseErrors.WithLabelValues(workerLabel(worker)).Inc()
}
