// Package monitoring provides simple in-process counters.
//
// DESIGN: Lightweight atomic counters for the bot's operational view:
//   - updates:          Telegram updates received
//   - messages:         text messages that entered the handling pipeline
//   - denials:          queries refused by the access policy
//   - dispatchFailures: vendor calls that returned an error
//   - billed:           messages successfully recorded in the ledger
//
// Surfaced on the admin dashboard. For production, export these to
// Prometheus or similar.
package monitoring

import (
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	startedAt time.Time

	updates          atomic.Int64
	messages         atomic.Int64
	denials          atomic.Int64
	dispatchFailures atomic.Int64
	billed           atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startedAt: time.Now()}
}

// RecordUpdate records one received Telegram update.
func (mc *MetricsCollector) RecordUpdate() { mc.updates.Add(1) }

// RecordMessage records one text message entering the pipeline.
func (mc *MetricsCollector) RecordMessage() { mc.messages.Add(1) }

// RecordDenial records an access-policy refusal.
func (mc *MetricsCollector) RecordDenial() { mc.denials.Add(1) }

// RecordDispatchFailure records a failed vendor call.
func (mc *MetricsCollector) RecordDispatchFailure() { mc.dispatchFailures.Add(1) }

// RecordBilled records a message committed to the ledger.
func (mc *MetricsCollector) RecordBilled() { mc.billed.Add(1) }

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Uptime           time.Duration
	Updates          int64
	Messages         int64
	Denials          int64
	DispatchFailures int64
	Billed           int64
}

// Stats returns a snapshot of all counters.
func (mc *MetricsCollector) Stats() Snapshot {
	return Snapshot{
		Uptime:           time.Since(mc.startedAt).Truncate(time.Second),
		Updates:          mc.updates.Load(),
		Messages:         mc.messages.Load(),
		Denials:          mc.denials.Load(),
		DispatchFailures: mc.dispatchFailures.Load(),
		Billed:           mc.billed.Load(),
	}
}
