package task

import "testing"

type fakeScheduler struct {
	enqueued []*Header
}

func (f *fakeScheduler) EnqueueHeader(h *Header) {
	f.enqueued = append(f.enqueued, h)
}

type stubPollable struct {
	head Header
}

func (s *stubPollable) PollOnce() {}
func (s *stubPollable) Head() *Header { return &s.head }

func TestHeaderInitSetsRunningAndJoinInterest(t *testing.T) {
	var h Header
	sched := &fakeScheduler{}
	owner := &stubPollable{}
	h.Init(1, sched, owner)

	if !h.IsRunning() {
		t.Error("Init should set Running")
	}
	if h.IsComplete() {
		t.Error("Init should not set Complete")
	}
	if !h.HasJoinInterest() {
		t.Error("Init should set JoinInterest")
	}
}

func TestMarkScheduledOnlyFiresOnce(t *testing.T) {
	var h Header
	h.Init(1, &fakeScheduler{}, &stubPollable{})

	if !h.MarkScheduled() {
		t.Fatal("first MarkScheduled should succeed")
	}
	if h.MarkScheduled() {
		t.Error("second MarkScheduled before ClearScheduled should fail (I6)")
	}
	h.ClearScheduled()
	if !h.MarkScheduled() {
		t.Error("MarkScheduled should succeed again after ClearScheduled")
	}
}

func TestMarkScheduledFailsAfterComplete(t *testing.T) {
	var h Header
	h.Init(1, &fakeScheduler{}, &stubPollable{})
	h.TransitionToComplete()

	if h.MarkScheduled() {
		t.Error("MarkScheduled should never succeed once Complete")
	}
}

func TestWakeEnqueuesExactlyOnce(t *testing.T) {
	var h Header
	sched := &fakeScheduler{}
	h.Init(1, sched, &stubPollable{})

	w := NewWaker(&h)
	w.Wake()
	w.Wake()
	w.Wake()

	if len(sched.enqueued) != 1 {
		t.Fatalf("expected exactly 1 enqueue from repeated wakes, got %d", len(sched.enqueued))
	}
}

func TestTransitionToCompleteReportsJoinWaker(t *testing.T) {
	var h Header
	h.Init(1, &fakeScheduler{}, &stubPollable{})

	if hadWaker := h.TransitionToComplete(); hadWaker {
		t.Error("no join waker was installed, should report false")
	}

	var h2 Header
	h2.Init(2, &fakeScheduler{}, &stubPollable{})
	joinSched := &fakeScheduler{}
	joinTask := Header{}
	joinTask.Init(99, joinSched, &stubPollable{})
	h2.SetJoinWaker(NewWaker(&joinTask))

	hadWaker := h2.TransitionToComplete()
	if !hadWaker {
		t.Error("a join waker was installed, should report true")
	}
}

func TestDropJoinInterestClearsBit(t *testing.T) {
	var h Header
	h.Init(1, &fakeScheduler{}, &stubPollable{})
	h.DropJoinInterest()
	if h.HasJoinInterest() {
		t.Error("DropJoinInterest should clear JoinInterest")
	}
}

func TestZeroWakerIsNoop(t *testing.T) {
	var w Waker
	if !w.IsZero() {
		t.Error("zero Waker should report IsZero")
	}
	// must not panic
	w.Wake()
	w.WakeByRef()
}
