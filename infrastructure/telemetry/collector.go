// Package telemetry implements the server's per-direction byte counters
// and periodic statistics loop (spec.md §3, §4.6). It is adapted from the
// teacher's trafficstats package: atomic counters updated off the hot
// path, sampled by a single ticking goroutine.
package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/y5a9f2y/proxy/application"
)

// Collector accumulates bytes moved ep0->ep1 ("up") and ep1->ep0
// ("down") and reports a formatted rate every interval, matching
// spec.md §4.6's rate_up/rate_down sampling.
type Collector struct {
	bytesUp   atomic.Int64
	bytesDown atomic.Int64

	logger   application.Logger
	interval time.Duration
}

// NewCollector builds a Collector that logs a rate sample every interval.
func NewCollector(logger application.Logger, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Collector{logger: logger, interval: interval}
}

var _ application.TrafficRecorder = (*Collector)(nil)

// AddUp records bytes moved from ep0 to ep1.
func (c *Collector) AddUp(bytes int) {
	if bytes <= 0 {
		return
	}
	c.bytesUp.Add(int64(bytes))
}

// AddDown records bytes moved from ep1 to ep0.
func (c *Collector) AddDown(bytes int) {
	if bytes <= 0 {
		return
	}
	c.bytesDown.Add(int64(bytes))
}

// Run blocks, logging a rate sample every interval until ctx is
// cancelled. Each sample resets both counters and the timestamp
// (spec.md §4.6: "log, then reset both counters and the timestamp").
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			up := c.bytesUp.Swap(0)
			down := c.bytesDown.Swap(0)

			seconds := elapsed.Seconds()
			if seconds <= 0 {
				seconds = c.interval.Seconds()
			}
			rateUp := uint64(float64(up) / seconds)
			rateDown := uint64(float64(down) / seconds)

			c.logger.Printf("throughput: up=%s down=%s", FormatRate(rateUp), FormatRate(rateDown))
		}
	}
}
