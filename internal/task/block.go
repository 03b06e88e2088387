package task

import "github.com/senyosimpson/chrono/internal/cell"

// Future is a single-step state machine: Poll advances it once and
// reports either Pending (ready == false, out is the zero value) or
// Ready (ready == true, out is the final value). w is this poll's
// waker — a Future that cannot make progress registers w with whatever
// resource it is waiting on (a channel, a timer) before returning
// Pending, per spec.md §4.8/§9.
type Future[T any] interface {
	Poll(w Waker) (out T, ready bool)
}

// Block is the fixed-address per-task memory block of spec.md §3: a
// Header plus the in-flight future or, once Complete, its output — the
// two never coexist (I2/I3): PollOnce clears the future field when it
// writes the output. They are two separate fields, not one shared
// piece of storage; cell.Cell[T] holds the output.
//
// Block implements Pollable, so *Block[F, T] is exactly the
// (data pointer, method table) its Header's owner field holds and the
// executor dispatches through — no separate vtable struct is declared,
// because the interface value already is one (see SPEC_FULL.md §4.0).
type Block[F Future[T], T any] struct {
	Header
	future F
	out    cell.Cell[T]
}

// Outputer is the narrower interface a JoinHandle needs: enough to poll
// the task, read its header, and retrieve or drop its eventual output.
// Every *Block[F, T] implements it; JoinHandle[T] holds one generically,
// so it keeps static knowledge of T all the way through instead of
// needing the erased get_output(out_ptr) call spec.md §4.3 describes.
type Outputer[T any] interface {
	Pollable
	TakeOutput() T
	DropJoinHandle()
}

var _ Pollable = (*Block[zeroFuture[int], int])(nil)
var _ Outputer[int] = (*Block[zeroFuture[int], int])(nil)

// zeroFuture is referenced only by the interface-satisfaction check
// above; it is never constructed.
type zeroFuture[T any] struct{}

func (zeroFuture[T]) Poll(Waker) (T, bool) { var z T; return z, false }

// Init prepares the block for a fresh run with future f. The caller
// (Spawn) must have already verified the block is idle — not Running,
// not mid-poll — per I4; Init does not re-check, it only (re)writes the
// fields.
func (b *Block[F, T]) Init(id uint64, sched Scheduler, f F) {
	b.Header.Init(id, sched, b)
	b.future = f
}

// Head returns the block's control header.
func (b *Block[F, T]) Head() *Header { return &b.Header }

// PollOnce drives the future one step. On Ready, it writes the output
// into the status cell and performs the Header's transition-to-complete,
// firing the join waker — if one was installed — exactly once.
//
// Reentrancy: a wake delivered during Poll can only re-set Scheduled (via
// MarkScheduled's CAS), which the executor observes on the *next* pop; it
// cannot re-enter PollOnce concurrently because the executor is the only
// caller and it is single-threaded.
func (b *Block[F, T]) PollOnce() {
	if b.Header.IsComplete() {
		return
	}
	w := NewWaker(&b.Header)
	out, ready := b.future.Poll(w)
	if !ready {
		return
	}
	var zero F
	b.future = zero
	b.out.Write(out)
	hadJoinWaker := b.Header.TransitionToComplete()
	if hadJoinWaker {
		b.Header.TakeJoinWaker().Wake()
	}
	// If the JoinHandle was already Abandoned (DropJoinHandle ran before
	// we got here), the output cell is written but never taken or
	// dropped — left to the GC rather than re-entering DropJoinHandle
	// from here, since JoinInterest is already gone and there is no
	// second caller left to race.
}

// TakeOutput moves the output out of the status cell. Precondition:
// Complete and not yet taken — violating it is a programmer bug
// (spec.md §7's OutputAlreadyTaken), so it panics rather than returning
// a zero value that could be mistaken for a real one.
func (b *Block[F, T]) TakeOutput() T {
	if !b.Header.IsComplete() {
		panic("chrono: TakeOutput called before the task completed")
	}
	if !b.out.Written() {
		panic("chrono: TakeOutput called twice on the same task")
	}
	return b.out.Take()
}

// DropJoinHandle clears JoinInterest and, if the task has already
// completed, drops the unread output in place — matching spec.md §4.3's
// drop_join_handle contract exactly.
func (b *Block[F, T]) DropJoinHandle() {
	b.Header.DropJoinInterest()
	if b.Header.IsComplete() && b.out.Written() {
		b.out.Drop()
	}
}
