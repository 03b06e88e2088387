// Package chrono is a single-threaded, cooperative task runtime: an
// executor that polls a fixed set of statically-allocated tasks to
// completion, a bounded MPSC channel, and a deadline-ordered timer
// driver — the Go rendition of the original design's heap-free,
// interrupt-driven executor (see SPEC_FULL.md).
package chrono

import (
	"sync/atomic"
	"time"

	"github.com/senyosimpson/chrono/internal/task"
)

// Runtime is the executor of spec.md §4.2: one ready queue, one wake
// channel standing in for "wait for interrupt" (SPEC_FULL.md §4.5), and a
// timer driver consulted between drains. Exactly one goroutine may call
// BlockOn on a given Runtime at a time; Spawn and channel/timer
// wakers may be called from any goroutine.
type Runtime struct {
	queue task.Queue

	wakeCh      chan struct{}
	wakePending atomic.Bool

	nextID atomic.Uint64

	timers *TimerDriver

	logger  Logger
	metrics MetricsProvider
}

// New builds a Runtime. The returned value is ready to Spawn onto and
// drive with BlockOn immediately.
func New(opts ...Option) *Runtime {
	o := resolveRuntimeOptions(opts)
	timers := NewTimerDriver(o.timerCapHint)
	timers.SetMetrics(o.metrics)
	return &Runtime{
		wakeCh:  make(chan struct{}, 1),
		timers:  timers,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Timers exposes the runtime's timer driver, for constructing Sleep
// futures against it.
func (rt *Runtime) Timers() *TimerDriver { return rt.timers }

func (rt *Runtime) nextTaskID() uint64 { return rt.nextID.Add(1) }

// EnqueueHeader implements task.Scheduler. Called only after a Header's
// Scheduled CAS has already won (Header.wake / Spawn), so it never needs
// to re-check state — it links the header in and, if the executor was
// parked, wakes it exactly once (the dedup flag collapses any number of
// concurrent wakers arriving before the executor drains into a single
// channel send, matching eventloop.Loop's fastWakeupCh/
// wakeUpSignalPending pattern).
func (rt *Runtime) EnqueueHeader(h *task.Header) {
	rt.queue.PushBack(h)
	rt.metrics.QueueDepth(rt.queue.Len())
	if rt.wakePending.CompareAndSwap(false, true) {
		select {
		case rt.wakeCh <- struct{}{}:
		default:
		}
	}
}

// drainReady pops and polls every task currently on the ready queue,
// clearing Scheduled immediately before each poll so a wake racing the
// poll legally re-schedules the task for a follow-up drain (P3).
func (rt *Runtime) drainReady() {
	for {
		h := rt.queue.PopFront()
		if h == nil {
			return
		}
		h.ClearScheduled()
		rt.metrics.QueueDepth(rt.queue.Len())
		rt.metrics.TasksPolled()
		owner := h.Owner()
		func() {
			defer rt.recoverPoll(h.ID())
			owner.PollOnce()
		}()
		if h.IsComplete() {
			rt.metrics.TasksCompleted()
		}
	}
}

// recoverPoll isolates a panicking task's poll from the executor
// goroutine, matching eventloop.Loop's safeExecute: log it and keep the
// executor alive rather than letting one task's bug take down every
// other task sharing the runtime.
func (rt *Runtime) recoverPoll(taskID uint64) {
	if r := recover(); r != nil {
		logf(rt.logger, LevelError, taskID, "task panicked during poll", map[string]any{
			"panic": r,
		})
	}
}

// parkUntilWork blocks until either a wake arrives or the earliest
// pending timer has fired, whichever comes first; it returns as soon as
// there is reason to re-check the ready queue.
func (rt *Runtime) parkUntilWork() {
	deadline, ok := rt.timers.NextDeadline()
	if !ok {
		<-rt.wakeCh
		rt.wakePending.Store(false)
		return
	}
	wait := time.Until(deadline)
	if wait <= 0 {
		rt.timers.FireDue()
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-rt.wakeCh:
		rt.wakePending.Store(false)
	case <-timer.C:
		rt.timers.FireDue()
	}
}

// BlockOn drives root to completion on the calling goroutine, servicing
// every other spawned task on rt in the meantime (spec.md §4.6) — this
// is the runtime's only blocking entry point; there is no separate
// Run-forever loop, matching the original design's "main drives the
// executor" shape.
func BlockOn[T any](rt *Runtime, root task.Future[T]) T {
	var block task.Block[task.Future[T], T]
	block.Init(rt.nextTaskID(), rt, root)
	block.Head().MarkScheduled()
	rt.queue.PushBack(block.Head())
	rt.metrics.TasksSpawned()

	for !block.Head().IsComplete() {
		rt.drainReady()
		if block.Head().IsComplete() {
			break
		}
		rt.timers.FireDue()
		if !block.Head().IsComplete() && rt.queue.Empty() {
			rt.parkUntilWork()
		}
	}
	return block.TakeOutput()
}

// Spawn initializes block with f and links it onto rt's ready queue for
// its first poll, returning a JoinHandle that observes its eventual
// output. Spawn fails if block is still Running — reusing a live task
// block is a caller bug (I4), not a recoverable race, so it is reported
// rather than silently reinitializing live state out from under a
// concurrent poll.
func Spawn[F task.Future[T], T any](rt *Runtime, block *task.Block[F, T], f F) (*JoinHandle[T], error) {
	if block.Head().IsRunning() {
		return nil, &SpawnError{Kind: SpawnAlreadyRunning}
	}
	id := rt.nextTaskID()
	block.Init(id, rt, f)
	block.Head().MarkScheduled()
	rt.EnqueueHeader(block.Head())
	rt.metrics.TasksSpawned()
	return &JoinHandle[T]{block: block}, nil
}
