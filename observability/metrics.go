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
 */

// Package observability exposes the admin listener's /metrics
// (prometheus/client_golang) and /healthz (shirou/gopsutil disk.Usage)
// endpoints, grounded on the promauto.NewCounterVec request-counter
// idiom the pack's reference S3 gateway uses at its router layer.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3fsgw_requests_total",
			Help: "Total dispatched requests by method and status code.",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3fsgw_request_duration_seconds",
			Help:    "Request handling latency by method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	bytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3fsgw_bytes_transferred_total",
			Help: "Total response bytes written by method.",
		},
		[]string{"method"},
	)
)

// Metrics records per-request counters through its Access method, which
// the dispatcher reaches alongside logger.Logger.Access.
type Metrics struct{}

// New returns a Metrics recorder; it holds no state since the
// prometheus collectors above are process-global by design.
func New() *Metrics { return &Metrics{} }

// Access records one request's outcome, satisfying dispatcher.AccessLogger
// so it can be composed alongside logger.Logger in a MultiAccess.
func (m *Metrics) Access(method, _ string, status int, bytes int64, d time.Duration) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method).Observe(d.Seconds())
	bytesTransferred.WithLabelValues(method).Add(float64(bytes))
}
