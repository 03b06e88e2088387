package chrono

import (
	"container/heap"
	"sync"
	"time"

	"github.com/senyosimpson/chrono/internal/task"
)

// timerEntry is one pending sleep: wake w once now() >= deadline.
type timerEntry struct {
	deadline time.Time
	seq      uint64
	waker    task.Waker
	index    int
}

// timerHeap is a container/heap min-heap ordered by deadline then seq,
// grounded on eventloop/loop.go's timerHeap — the same pattern the
// teacher uses to drive ScheduleTimer/runTimers.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerDriver is the single source of deadline-ordered wakeups a Runtime
// consults between ready-queue drains (spec.md §4.7). now is pluggable
// so tests can drive virtual time instead of wall-clock time, the way
// spec.md's testable property P6/S3 ("sleep ordering") wants to be
// checked without real sleeping.
type TimerDriver struct {
	mu      sync.Mutex
	heap    timerHeap
	nowFn   func() time.Time
	seq     uint64
	metrics MetricsProvider
}

// NewTimerDriver builds a driver using time.Now for now(), pre-sized for
// capHint concurrently pending sleeps.
func NewTimerDriver(capHint int) *TimerDriver {
	return newTimerDriverWithClock(capHint, time.Now)
}

func newTimerDriverWithClock(capHint int, nowFn func() time.Time) *TimerDriver {
	if capHint < 1 {
		capHint = 1
	}
	return &TimerDriver{heap: make(timerHeap, 0, capHint), nowFn: nowFn, metrics: NoopMetrics{}}
}

// SetMetrics installs the provider FireDue reports TimersFired to. Called
// once, by Runtime.New, before the driver is shared with any Sleep.
func (d *TimerDriver) SetMetrics(m MetricsProvider) {
	if m == nil {
		m = NoopMetrics{}
	}
	d.mu.Lock()
	d.metrics = m
	d.mu.Unlock()
}

// Schedule arranges for w to be woken no earlier than deadline — a lower
// bound, matching spec.md §4.7's "the timer driver guarantees a lower
// bound on delay, never an upper bound" (P6).
func (d *TimerDriver) Schedule(deadline time.Time, w task.Waker) {
	d.mu.Lock()
	d.seq++
	heap.Push(&d.heap, &timerEntry{deadline: deadline, seq: d.seq, waker: w})
	d.mu.Unlock()
}

// NextDeadline reports the earliest pending deadline, if any pending
// timer exists.
func (d *TimerDriver) NextDeadline() (deadline time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.heap) == 0 {
		return time.Time{}, false
	}
	return d.heap[0].deadline, true
}

// FireDue wakes every entry whose deadline has passed according to
// now(), removing them from the heap. Called by the executor between
// ready-queue drains.
func (d *TimerDriver) FireDue() {
	now := d.nowFn()
	var due []task.Waker
	d.mu.Lock()
	metrics := d.metrics
	for len(d.heap) > 0 && !d.heap[0].deadline.After(now) {
		e := heap.Pop(&d.heap).(*timerEntry)
		due = append(due, e.waker)
	}
	d.mu.Unlock()
	for _, w := range due {
		metrics.TimersFired()
		w.Wake()
	}
}

// Sleep is the Future spec.md §4.7 describes: Pending until the deadline
// has passed, Ready(struct{}{}) after. It registers itself with the
// driver at most once, on its first poll — later polls (if any race
// delivers one before the wake fires) just re-check the clock.
type Sleep struct {
	driver     *TimerDriver
	deadline   time.Time
	registered bool
}

// NewSleep returns a Future that completes once d has elapsed, scheduled
// against driver.
func NewSleep(driver *TimerDriver, d time.Duration) *Sleep {
	return &Sleep{driver: driver, deadline: driver.nowFn().Add(d)}
}

// Poll implements task.Future[struct{}].
func (s *Sleep) Poll(w task.Waker) (struct{}, bool) {
	if !s.driver.nowFn().Before(s.deadline) {
		return struct{}{}, true
	}
	if !s.registered {
		s.registered = true
		s.driver.Schedule(s.deadline, w)
	}
	return struct{}{}, false
}
