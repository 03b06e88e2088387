package chrono

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senyosimpson/chrono/internal/task"
)

func TestTrySendTryRecvFIFO(t *testing.T) {
	s, r := NewChannel[int](4)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.TrySend(i))
	}
	for i := 1; i <= 3; i++ {
		v, err := r.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestTrySendReturnsFullAtCapacity(t *testing.T) {
	s, _ := NewChannel[int](2)
	require.NoError(t, s.TrySend(1))
	require.NoError(t, s.TrySend(2))
	assert.ErrorIs(t, s.TrySend(3), ErrSendFull)
}

func TestTryRecvOnEmptyOpenChannelIsZeroNil(t *testing.T) {
	_, r := NewChannel[int](2)
	v, err := r.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestDropAllSendersClosesChannel(t *testing.T) {
	s, r := NewChannel[int](2)
	s.Drop()
	_, err := r.TryRecv()
	assert.ErrorIs(t, err, ErrRecvClosed)
}

func TestDropReceiverClosesForSenders(t *testing.T) {
	s, r := NewChannel[int](1)
	r.Drop()
	assert.ErrorIs(t, s.TrySend(1), ErrSendClosed)
}

func TestSenderCloneKeepsChannelOpenUntilAllDrop(t *testing.T) {
	s1, r := NewChannel[int](1)
	s2 := s1.Clone()

	s1.Drop()
	require.NoError(t, s2.TrySend(1), "channel should remain open while s2 is live")
	r.TryRecv()

	s2.Drop()
	_, err := r.TryRecv()
	assert.ErrorIs(t, err, ErrRecvClosed, "expected closed once every clone dropped")
}

func TestSendFuturePendsWhenFullThenCompletesOnDrain(t *testing.T) {
	s, r := NewChannel[int](1)
	require.NoError(t, s.TrySend(1)) // fill capacity

	sf := s.Send(2)
	w := task.NewWaker(nil) // no real task behind this waker in this unit test
	_, ready := sf.Poll(w)
	require.False(t, ready, "Send should be Pending while the ring is full")

	_, err := r.TryRecv()
	require.NoError(t, err)

	err, ready = sf.Poll(w)
	require.True(t, ready, "Send should complete once the ring has room")
	assert.NoError(t, err)
}

func TestRecvFuturePendsWhenEmptyThenCompletesOnSend(t *testing.T) {
	s, r := NewChannel[int](1)
	rf := r.Recv()

	w := task.NewWaker(nil)
	_, ready := rf.Poll(w)
	require.False(t, ready, "Recv should be Pending on an empty channel")

	require.NoError(t, s.TrySend(9))

	result, ready := rf.Poll(w)
	require.True(t, ready, "Recv should complete once a value has been sent")
	assert.Equal(t, 9, result.Value)
	assert.NoError(t, result.Err)
}
