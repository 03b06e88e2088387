package chrono

import "github.com/senyosimpson/chrono/internal/task"

// JoinHandle is the owning side of spec.md §4.3's join protocol: a
// Future that completes with the spawned task's output. It holds its
// block through the narrower task.Outputer[T] interface, so — unlike
// the original design's erased get_output(out_ptr) call — it keeps
// static knowledge of T from Spawn all the way to Poll (SPEC_FULL.md
// §4.0).
type JoinHandle[T any] struct {
	block   task.Outputer[T]
	dropped bool
}

var _ task.Future[int] = (*JoinHandle[int])(nil)

// Poll implements task.Future[T]: Pending until the spawned task
// completes, Ready with its output exactly once. Polling a JoinHandle
// again after it has returned Ready is a programmer bug — the output
// cell has already been taken — and panics rather than returning a
// second, fabricated value.
func (j *JoinHandle[T]) Poll(w task.Waker) (out T, ready bool) {
	head := j.block.Head()
	if !head.IsComplete() {
		head.SetJoinWaker(w)
		// Re-check after installing the waker: the task may have
		// completed between the IsComplete check above and the
		// SetJoinWaker call, in which case TransitionToComplete already
		// ran and will never see this waker — so this poll must notice
		// completion itself instead of waiting for a wake that will
		// never come.
		if !head.IsComplete() {
			var zero T
			return zero, false
		}
	}
	if j.dropped {
		panic(errOutputAlreadyTaken(head.ID()))
	}
	j.dropped = true
	return j.block.TakeOutput(), true
}

// Abandon drops the JoinHandle without waiting for its output,
// matching spec.md §4.3's drop_join_handle: JoinInterest is cleared, and
// if the task has already completed, its unread output is discarded in
// place rather than leaked until the block is reused.
func (j *JoinHandle[T]) Abandon() {
	if j.dropped {
		return
	}
	j.dropped = true
	j.block.DropJoinHandle()
}

// ID returns the underlying task's diagnostic identifier.
func (j *JoinHandle[T]) ID() uint64 { return j.block.Head().ID() }
