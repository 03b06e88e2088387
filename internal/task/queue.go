package task

// Queue is the intrusive, non-owning FIFO ready list of spec.md §4.4:
// threaded through Header.prev/next, holding no allocation of its own,
// bounded only by however many task blocks the embedder declared. Queue
// does not own the Header values it links — they live at whatever
// fixed address the embedder declared them at (I4).
//
// Push and Pop both take Queue's spinlock for the few pointer writes that
// splice a node in or out; neither holds it across a poll. Push is what a
// waker calls, possibly from a different goroutine standing in for an
// interrupt context (spec.md §5); Pop is called only from the executor's
// own goroutine.
type Queue struct {
	mu         spinlock
	head, tail *Header
	len        int
}

// PushBack links h onto the tail of the queue. The caller must have
// already won h's Scheduled CAS (Header.MarkScheduled) — Queue itself
// does not re-check it, matching spec.md's "mark-scheduled is the gate
// for enqueue" contract living in Header, not here.
func (q *Queue) PushBack(h *Header) {
	q.mu.lock()
	h.prev, h.next = q.tail, nil
	if q.tail != nil {
		q.tail.next = h
	} else {
		q.head = h
	}
	q.tail = h
	q.len++
	q.mu.unlock()
}

// PopFront unlinks and returns the head of the queue, or nil if empty.
// The returned Header's Scheduled bit is still set; the caller (the
// executor) clears it immediately before polling, per spec.md §4.2's
// "ClearScheduled" operation, so a wake racing the poll can legally
// re-schedule the task for a follow-up poll.
func (q *Queue) PopFront() *Header {
	q.mu.lock()
	h := q.head
	if h != nil {
		q.head = h.next
		if q.head != nil {
			q.head.prev = nil
		} else {
			q.tail = nil
		}
		h.next = nil
		q.len--
	}
	q.mu.unlock()
	return h
}

// Empty reports whether the queue currently has no linked tasks. Racy by
// nature (another goroutine may push the instant after this returns
// true) — callers use it only as a hint, never as a correctness gate.
func (q *Queue) Empty() bool {
	q.mu.lock()
	empty := q.head == nil
	q.mu.unlock()
	return empty
}

// Len reports the number of tasks currently linked into the queue, for
// callers (metrics) that want a depth gauge. Racy in the same way Empty
// is — a hint, not a correctness gate.
func (q *Queue) Len() int {
	q.mu.lock()
	n := q.len
	q.mu.unlock()
	return n
}
