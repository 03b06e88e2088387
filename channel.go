package chrono

import (
	"sync"

	"github.com/senyosimpson/chrono/internal/task"
)

// chanCore is the shared ring buffer backing a bounded MPSC channel
// (spec.md §4.8): a fixed-capacity slice, one waker slot for the single
// receiver, and — since spec.md leaves the blocking-send strategy as an
// open question (SPEC_FULL.md §9) — a small slice of blocked-sender
// wakers so TrySend's callers can park instead of busy-polling a Full
// error.
type chanCore[T any] struct {
	mu sync.Mutex

	buf        []T
	head, size int

	closed      bool
	senderCount int

	recvWaker  task.Waker
	sendWakers []task.Waker

	metrics MetricsProvider
}

// NewChannel allocates a bounded MPSC channel of the given capacity and
// returns its sender and receiver halves. A capacity below 1 is treated
// as 1; the backing slice is allocated once here, never on the hot send/recv
// path.
func NewChannel[T any](capacity int) (*Sender[T], *Receiver[T]) {
	return newChannelWithMetrics[T](capacity, NoopMetrics{})
}

func newChannelWithMetrics[T any](capacity int, m MetricsProvider) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}
	core := &chanCore[T]{
		buf:         make([]T, capacity),
		senderCount: 1,
		metrics:     m,
	}
	return &Sender[T]{core: core}, &Receiver[T]{core: core}
}

// Sender is one producer handle onto a bounded channel. Cloning a Sender
// (Clone) is how spec.md's MPSC multi-producer side is expressed —
// each clone increments the live sender count the Receiver uses to
// decide when the channel has truly closed.
type Sender[T any] struct {
	core    *chanCore[T]
	dropped bool
}

// Clone returns a second Sender handle sharing this channel, incrementing
// the live producer count.
func (s *Sender[T]) Clone() *Sender[T] {
	s.core.mu.Lock()
	s.core.senderCount++
	s.core.mu.Unlock()
	return &Sender[T]{core: s.core}
}

// Drop releases this Sender handle. Once every Sender has dropped, the
// channel closes and any parked receiver is woken to observe it.
func (s *Sender[T]) Drop() {
	if s.dropped {
		return
	}
	s.dropped = true
	s.core.mu.Lock()
	s.core.senderCount--
	var w task.Waker
	if s.core.senderCount == 0 {
		s.core.closed = true
		w = s.core.recvWaker
		s.core.recvWaker = task.Waker{}
	}
	s.core.mu.Unlock()
	w.Wake()
}

// TrySend attempts a non-blocking enqueue, matching spec.md §4.8's
// try_send: it returns ErrSendFull immediately rather than parking, and
// ErrSendClosed once the receiver has dropped.
func (s *Sender[T]) TrySend(v T) error {
	s.core.mu.Lock()
	if s.core.closed {
		s.core.mu.Unlock()
		return ErrSendClosed
	}
	if s.core.size == len(s.core.buf) {
		s.core.mu.Unlock()
		return ErrSendFull
	}
	idx := (s.core.head + s.core.size) % len(s.core.buf)
	s.core.buf[idx] = v
	s.core.size++
	w := s.core.recvWaker
	s.core.recvWaker = task.Waker{}
	s.core.mu.Unlock()
	w.Wake()
	return nil
}

// Send returns a Future that completes once v has been enqueued, or
// with ErrSendClosed if the receiver drops first. It parks on the
// channel's blocked-sender waker slot when the ring is full, rather
// than busy-polling (SPEC_FULL.md §9's open-question resolution).
func (s *Sender[T]) Send(v T) *SendFuture[T] {
	return &SendFuture[T]{sender: s, value: v}
}

// SendFuture is the task.Future[error] returned by Sender.Send.
type SendFuture[T any] struct {
	sender     *Sender[T]
	value      T
	registered bool
}

// Poll implements task.Future[error].
func (f *SendFuture[T]) Poll(w task.Waker) (error, bool) {
	err := f.sender.TrySend(f.value)
	if err == nil {
		return nil, true
	}
	if err == ErrSendClosed {
		return err, true
	}
	// ErrSendFull: park until the receiver drains or drops.
	core := f.sender.core
	core.mu.Lock()
	if core.closed {
		core.mu.Unlock()
		return ErrSendClosed, true
	}
	if core.size < len(core.buf) {
		core.mu.Unlock()
		return f.Poll(w)
	}
	core.sendWakers = append(core.sendWakers, w)
	core.metrics.ChannelSendBlocked()
	core.mu.Unlock()
	f.registered = true
	return nil, false
}

// Receiver is the single-consumer handle onto a bounded channel.
type Receiver[T any] struct {
	core    *chanCore[T]
	dropped bool
}

// TryRecv attempts a non-blocking dequeue, matching spec.md §4.8's
// try_recv: returns ErrRecvClosed once the ring is empty and every
// Sender has dropped, and the zero value of T with a nil error when
// merely empty (not yet closed). The error tells "never again" apart
// from the rest; an empty result is not distinguishable from a received
// zero value.
func (r *Receiver[T]) TryRecv() (T, error) {
	var zero T
	r.core.mu.Lock()
	if r.core.size == 0 {
		closed := r.core.closed
		r.core.mu.Unlock()
		if closed {
			return zero, ErrRecvClosed
		}
		return zero, nil
	}
	v := r.core.buf[r.core.head]
	r.core.buf[r.core.head] = zero
	r.core.head = (r.core.head + 1) % len(r.core.buf)
	r.core.size--
	wakers := r.core.sendWakers
	r.core.sendWakers = nil
	r.core.mu.Unlock()
	for _, w := range wakers {
		w.Wake()
	}
	return v, nil
}

// Recv returns a Future that completes with the next value, or with
// ErrRecvClosed once the channel has drained and every sender has
// dropped.
func (r *Receiver[T]) Recv() *RecvFuture[T] {
	return &RecvFuture[T]{receiver: r}
}

// RecvFuture is the task.Future[RecvResult[T]] returned by Receiver.Recv.
type RecvFuture[T any] struct {
	receiver *Receiver[T]
}

// RecvResult pairs a received value with its error, since task.Future
// carries a single output type rather than Go's two-value return.
type RecvResult[T any] struct {
	Value T
	Err   error
}

// Poll implements task.Future[RecvResult[T]]. It re-implements the
// dequeue directly (rather than calling TryRecv) so that finding the
// ring empty-but-not-closed and installing the waker happen under one
// lock acquisition, with no window for a racing sender to slip in
// between the check and the waker install.
func (f *RecvFuture[T]) Poll(w task.Waker) (RecvResult[T], bool) {
	core := f.receiver.core
	core.mu.Lock()
	if core.size > 0 {
		var zero T
		v := core.buf[core.head]
		core.buf[core.head] = zero
		core.head = (core.head + 1) % len(core.buf)
		core.size--
		wakers := core.sendWakers
		core.sendWakers = nil
		core.mu.Unlock()
		for _, sw := range wakers {
			sw.Wake()
		}
		return RecvResult[T]{Value: v}, true
	}
	if core.closed {
		core.mu.Unlock()
		return RecvResult[T]{Err: ErrRecvClosed}, true
	}
	core.recvWaker = w
	core.mu.Unlock()
	return RecvResult[T]{}, false
}

// Drop releases the Receiver handle. A dropped receiver wakes every
// blocked sender so they observe ErrSendClosed instead of parking
// forever.
func (r *Receiver[T]) Drop() {
	if r.dropped {
		return
	}
	r.dropped = true
	r.core.mu.Lock()
	r.core.closed = true
	wakers := r.core.sendWakers
	r.core.sendWakers = nil
	r.core.mu.Unlock()
	for _, w := range wakers {
		w.Wake()
	}
}
