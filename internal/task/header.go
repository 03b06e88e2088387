// Package task implements the per-task memory block: its packed state
// word, its intrusive ready-queue links, and the generic future-carrying
// block that the executor polls through a plain Go interface (the
// interface value itself plays the role the original design's hand-built
// vtable plays in a language without them).
package task

import (
	"sync/atomic"
)

// State bits, packed into a single atomic word exactly as spec.md §3 lays
// out. Single-threaded critical sections would be enough on the target
// hardware; Go's atomic.Uint32 gives the same guarantee for free.
const (
	// Running is set on construction and cleared on completion.
	Running uint32 = 1 << iota
	// Scheduled is set while the task is linked into the ready queue.
	Scheduled
	// Complete is set once the future has returned Ready and the output
	// slot has been populated.
	Complete
	// JoinWaker is set while a JoinHandle has registered its waker.
	JoinWaker
	// JoinInterest is set while a JoinHandle still exists.
	JoinInterest
)

// Scheduler is the callback surface a ready queue owner (the executor)
// exposes to a Header so that a successful MarkScheduled can enqueue
// itself. It is declared here, not in the executor's package, so this
// package never needs to import the executor — the executor imports this
// one.
type Scheduler interface {
	// EnqueueHeader pushes h onto the ready queue. Called only after h's
	// Scheduled bit has already won its CAS.
	EnqueueHeader(h *Header)
}

// Waker is the capability to move a task from idle to Scheduled and push
// it onto its runtime's ready queue. It is a small value type — cloning a
// Waker is copying one pointer, never a heap allocation, and dropping one
// is a no-op because task blocks outlive every waker that references them.
type Waker struct {
	header *Header
}

// NewWaker builds the waker for h. Exported for packages (channel, timer)
// that need to construct a Waker to park against some resource.
func NewWaker(h *Header) Waker { return Waker{header: h} }

// IsZero reports whether w is the zero Waker (no task attached).
func (w Waker) IsZero() bool { return w.header == nil }

// Wake and WakeByRef have identical semantics here (Waker has no owned
// resource to release on a consuming wake, unlike a boxed Rust waker) —
// both perform the task's mark-scheduled-then-enqueue sequence.
func (w Waker) Wake() {
	if w.header == nil {
		return
	}
	w.header.wake()
}

// WakeByRef is an alias for Wake kept for call sites that, in the
// original design, would otherwise need to avoid consuming an owned
// waker. Go has no ownership to consume, so the two are identical.
func (w Waker) WakeByRef() { w.Wake() }

// Header is the fixed-address, per-task control block: state word,
// intrusive queue links, the waker a JoinHandle has installed, and a
// back-pointer to the owning scheduler. Every pointer held by the ready
// queue and by wakers is a *Header (join handles hold the embedding
// block) — it never moves for the task block's lifetime (I4).
type Header struct {
	id    uint64
	state atomic.Uint32

	sched Scheduler

	joinMu    spinlock
	joinWaker Waker

	// prev/next thread this header through the intrusive ready queue.
	// Owned by whichever Queue currently holds the task; nil when the
	// task is not scheduled.
	prev, next *Header

	// owner is the pollable this header belongs to. It is set exactly
	// once, by the concrete *Block[F, T] that embeds this Header, and
	// never changes — this is the "vtable pointer" of spec.md §4.3,
	// expressed as a Go interface value instead of a hand-built struct
	// of function pointers.
	owner Pollable
}

// Owner returns the Pollable this header was initialised with — the
// queue pops *Header values but dispatches through this accessor, which
// is the only place a bare Header needs to reach back into its owning
// Block.
func (h *Header) Owner() Pollable { return h.owner }

// Pollable is the homogeneous, type-erased interface the ready queue and
// executor dispatch through. Every concrete *Block[F, T] implements it.
// This interface, held by value in Header.owner and reached through
// Owner() after the executor pops a *Header off the queue, is exactly the (data pointer, method table) pair spec.md §4.3 asks an
// implementer to build by hand in a language without interfaces.
type Pollable interface {
	// PollOnce drives the task's future forward one step. Reentrancy-safe
	// with respect to wakes delivered during the call, per spec.md §4.3.
	PollOnce()
	// Head returns the task's control block.
	Head() *Header
}

// Init prepares h for its first (or a repeat) run. The caller — Spawn —
// guarantees h is not currently Running (I4): spawning a block that is
// still running must fail, never silently reinitialise it. A block that
// has completed may be reinitialised; Init overwrites its state word.
func (h *Header) Init(id uint64, sched Scheduler, owner Pollable) {
	h.id = id
	h.sched = sched
	h.owner = owner
	h.prev, h.next = nil, nil
	h.joinWaker = Waker{}
	h.state.Store(Running | JoinInterest)
}

// ID returns the task's diagnostic identifier.
func (h *Header) ID() uint64 { return h.id }

// IsRunning reports the live Running bit.
func (h *Header) IsRunning() bool { return h.state.Load()&Running != 0 }

// IsComplete reports the live Complete bit.
func (h *Header) IsComplete() bool { return h.state.Load()&Complete != 0 }

// MarkScheduled is the CAS gate for enqueue (spec.md §4.2). It returns
// false — and the caller must not enqueue — when the task was already
// Scheduled, or when it is Complete (a completed task is never queued
// again).
func (h *Header) MarkScheduled() bool {
	for {
		old := h.state.Load()
		if old&Scheduled != 0 || old&Complete != 0 {
			return false
		}
		if h.state.CompareAndSwap(old, old|Scheduled) {
			return true
		}
	}
}

// ClearScheduled drops the Scheduled bit; called by the executor right
// after popping the task off the queue and before polling it, so a wake delivered mid-poll can re-schedule
// it (P3's "at most one additional poll" idempotence).
func (h *Header) ClearScheduled() {
	for {
		old := h.state.Load()
		if h.state.CompareAndSwap(old, old&^Scheduled) {
			return
		}
	}
}

// TransitionToComplete atomically sets Complete and clears Running,
// returning the previous JoinWaker bit so the caller can decide whether
// to fire the join waker exactly once.
func (h *Header) TransitionToComplete() (hadJoinWaker bool) {
	for {
		old := h.state.Load()
		next := (old &^ Running) | Complete
		if h.state.CompareAndSwap(old, next) {
			return old&JoinWaker != 0
		}
	}
}

// SetJoinWaker installs w as the waker a JoinHandle wants fired on
// completion, replacing any previously installed one.
func (h *Header) SetJoinWaker(w Waker) {
	h.joinMu.lock()
	h.joinWaker = w
	h.joinMu.unlock()
	h.state.Or(JoinWaker)
}

// TakeJoinWaker clears JoinWaker and returns the waker that was
// installed, or the zero Waker if none was.
func (h *Header) TakeJoinWaker() Waker {
	h.state.And(^JoinWaker)
	h.joinMu.lock()
	w := h.joinWaker
	h.joinWaker = Waker{}
	h.joinMu.unlock()
	return w
}

// DropJoinInterest clears JoinInterest (spec.md I5): a dropped JoinHandle
// stops the next completion from trying to wake it.
func (h *Header) DropJoinInterest() {
	h.state.And(^JoinInterest)
}

// HasJoinInterest reports whether a JoinHandle still exists.
func (h *Header) HasJoinInterest() bool {
	return h.state.Load()&JoinInterest != 0
}

// wake performs the waker protocol of spec.md §4.3: CAS the Scheduled
// bit, and only on success, push onto the runtime's ready queue. A wake
// delivered while already Scheduled is a no-op (I6) — idempotent by
// construction because MarkScheduled only succeeds once per scheduling
// cycle.
func (h *Header) wake() {
	if h.MarkScheduled() {
		h.sched.EnqueueHeader(h)
	}
}
