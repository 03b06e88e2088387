package task

import "testing"

// countdownFuture returns Pending for its first remaining polls, then
// becomes Ready with out.
type countdownFuture struct {
	remaining int
	out       int
	waker     Waker
}

func (f *countdownFuture) Poll(w Waker) (int, bool) {
	f.waker = w
	if f.remaining <= 0 {
		return f.out, true
	}
	f.remaining--
	return 0, false
}

// drainScheduler polls every header it is handed as soon as it is
// enqueued, as a single-threaded executor would on its next drain.
type drainScheduler struct{}

func (drainScheduler) EnqueueHeader(h *Header) {
	h.ClearScheduled()
	h.Owner().PollOnce()
}

func TestBlockPollOnceReachesReadyAndWritesOutput(t *testing.T) {
	var b Block[*countdownFuture, int]
	f := &countdownFuture{remaining: 0, out: 42}
	b.Init(1, &fakeScheduler{}, f)

	b.PollOnce()

	if !b.Head().IsComplete() {
		t.Fatal("expected task to be complete after one poll of a ready future")
	}
	if got := b.TakeOutput(); got != 42 {
		t.Errorf("expected output 42, got %d", got)
	}
}

func TestBlockPollOnceIsNoopAfterComplete(t *testing.T) {
	var b Block[*countdownFuture, int]
	f := &countdownFuture{remaining: 0, out: 7}
	b.Init(1, &fakeScheduler{}, f)
	b.PollOnce()
	b.PollOnce() // must not poll the future again or panic

	if got := b.TakeOutput(); got != 7 {
		t.Errorf("expected output 7, got %d", got)
	}
}

func TestBlockPendingThenWakeDeliversReady(t *testing.T) {
	var b Block[*countdownFuture, int]
	f := &countdownFuture{remaining: 1, out: 99}
	b.Init(1, &drainScheduler{}, f)

	b.PollOnce() // Pending: remaining goes to 0, registers waker
	if b.Head().IsComplete() {
		t.Fatal("should still be pending after first poll")
	}

	f.waker.Wake() // drainScheduler polls again synchronously

	if !b.Head().IsComplete() {
		t.Fatal("expected completion after wake-driven re-poll")
	}
	if got := b.TakeOutput(); got != 99 {
		t.Errorf("expected output 99, got %d", got)
	}
}

func TestBlockTakeOutputPanicsBeforeComplete(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic calling TakeOutput before completion")
		}
	}()
	var b Block[*countdownFuture, int]
	b.Init(1, &fakeScheduler{}, &countdownFuture{remaining: 5})
	b.TakeOutput()
}

func TestBlockDropJoinHandleDropsUnreadOutput(t *testing.T) {
	var b Block[*countdownFuture, int]
	b.Init(1, &fakeScheduler{}, &countdownFuture{remaining: 0, out: 5})
	b.PollOnce()

	b.DropJoinHandle()

	if b.Head().HasJoinInterest() {
		t.Error("DropJoinHandle should clear JoinInterest")
	}
	if b.out.Written() {
		t.Error("DropJoinHandle should drop the unread output of a completed task")
	}
}
