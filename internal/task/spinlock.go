package task

import "sync/atomic"

// spinlock is a short critical section implemented with a CAS loop rather
// than a sync.Mutex, standing in for the interrupt-masking section spec.md
// §5 asks for around queue links and waker-slot transfers. On a target
// without an OS scheduler to park a mutex on, a bounded spin is the
// faithful analogue of "mask interrupts, touch a few words, unmask"; the
// critical sections here are a handful of pointer/field writes, never a
// poll.
type spinlock struct {
	held atomic.Bool
}

func (s *spinlock) lock() {
	for !s.held.CompareAndSwap(false, true) {
	}
}

func (s *spinlock) unlock() {
	s.held.Store(false)
}
