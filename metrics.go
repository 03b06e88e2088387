package chrono

import "sync/atomic"

// Metrics is grounded on ygrebnov-workers/metrics/{provider,basic,noop}.go:
// a small Provider interface the runtime calls on every notable event,
// with a Noop default and an atomic-counter implementation for callers
// who want real numbers without pulling in a full metrics library.

// MetricsProvider receives counter and gauge events from a Runtime.
// Every method must be safe to call concurrently: spawns and
// completions happen on the executor goroutine, but QueueDepth and
// ChannelSendBlocked can fire from whatever goroutine is standing in
// for interrupt context.
type MetricsProvider interface {
	TasksSpawned()
	TasksPolled()
	TasksCompleted()
	QueueDepth(depth int)
	ChannelSendBlocked()
	TimersFired()
}

// NoopMetrics discards every event; it is the Runtime default.
type NoopMetrics struct{}

func (NoopMetrics) TasksSpawned()       {}
func (NoopMetrics) TasksPolled()        {}
func (NoopMetrics) TasksCompleted()     {}
func (NoopMetrics) QueueDepth(int)      {}
func (NoopMetrics) ChannelSendBlocked() {}
func (NoopMetrics) TimersFired()        {}

// AtomicMetrics is a MetricsProvider backed by plain atomic counters —
// no histogram buckets, no labels, just the running totals (and, for
// QueueDepth, the last observed gauge value) a test or a small embedded
// monitor needs.
type AtomicMetrics struct {
	spawned      atomic.Uint64
	polled       atomic.Uint64
	completed    atomic.Uint64
	queueDepth   atomic.Int64
	sendsBlocked atomic.Uint64
	timersFired  atomic.Uint64
}

func (m *AtomicMetrics) TasksSpawned()        { m.spawned.Add(1) }
func (m *AtomicMetrics) TasksPolled()         { m.polled.Add(1) }
func (m *AtomicMetrics) TasksCompleted()      { m.completed.Add(1) }
func (m *AtomicMetrics) QueueDepth(depth int) { m.queueDepth.Store(int64(depth)) }
func (m *AtomicMetrics) ChannelSendBlocked()  { m.sendsBlocked.Add(1) }
func (m *AtomicMetrics) TimersFired()         { m.timersFired.Add(1) }

// Snapshot is a point-in-time copy of AtomicMetrics' counters and gauges.
type Snapshot struct {
	TasksSpawned        uint64
	TasksPolled         uint64
	TasksCompleted      uint64
	QueueDepth          int64
	ChannelSendsBlocked uint64
	TimersFired         uint64
}

// Snapshot reads every counter and gauge. Individual fields may be
// updated between reads, so the result is not a single atomic
// point-in-time view across fields — matching the precision
// AtomicMetrics' callers actually need.
func (m *AtomicMetrics) Snapshot() Snapshot {
	return Snapshot{
		TasksSpawned:        m.spawned.Load(),
		TasksPolled:         m.polled.Load(),
		TasksCompleted:      m.completed.Load(),
		QueueDepth:          m.queueDepth.Load(),
		ChannelSendsBlocked: m.sendsBlocked.Load(),
		TimersFired:         m.timersFired.Load(),
	}
}
