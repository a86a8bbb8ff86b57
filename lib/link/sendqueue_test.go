package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitedWriter accepts at most max bytes per Write call, modeling a
// transport under backpressure.
type limitedWriter struct {
	max     int
	written []byte
	failAt  int // if > 0, Write returns an error on this call number
	calls   int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.failAt > 0 && w.calls == w.failAt {
		return 0, errWriteFailed
	}
	n := len(p)
	if w.max > 0 && n > w.max {
		n = w.max
	}
	w.written = append(w.written, p[:n]...)
	return n, nil
}

var errWriteFailed = &writeFailedError{}

type writeFailedError struct{}

func (*writeFailedError) Error() string { return "simulated write failure" }

func TestSendQueueDrainsFullyWhenUnconstrained(t *testing.T) {
	q := newSendQueue()
	q.enqueue([]byte("abc"))
	q.enqueue([]byte("defgh"))

	w := &limitedWriter{}
	require.NoError(t, q.pumpWrite(w))
	assert.True(t, q.empty(), "queue not empty after unconstrained drain")
	assert.Equal(t, []byte("abcdefgh"), w.written)
}

func TestSendQueueStallsOnShortWrite(t *testing.T) {
	q := newSendQueue()
	q.enqueue([]byte("abcdefgh"))

	w := &limitedWriter{max: 3}
	require.NoError(t, q.pumpWrite(w))
	assert.False(t, q.empty(), "queue empty after short write, want stalled with data remaining")
	assert.True(t, q.stalled)
	assert.Equal(t, 3, q.headOff)

	// Resume with a writer that accepts everything; should drain the rest.
	w2 := &limitedWriter{}
	q.clearStall()
	require.NoError(t, q.pumpWrite(w2))
	assert.True(t, q.empty(), "queue not empty after resumed drain")
	assert.Equal(t, []byte("defgh"), w2.written)
}

func TestSendQueuePropagatesWriteError(t *testing.T) {
	q := newSendQueue()
	q.enqueue([]byte("abc"))

	w := &limitedWriter{failAt: 1}
	assert.ErrorIs(t, q.pumpWrite(w), errWriteFailed)
}

func TestSendQueueEmptyOnFreshQueue(t *testing.T) {
	q := newSendQueue()
	assert.True(t, q.empty(), "fresh queue not empty")
}

func TestSendQueuePreservesFragmentOrder(t *testing.T) {
	q := newSendQueue()
	q.enqueue([]byte("1"))
	q.enqueue([]byte("2"))
	q.enqueue([]byte("3"))

	w := &limitedWriter{max: 1}
	for i := 0; i < 3; i++ {
		require.NoError(t, q.pumpWrite(w))
		q.clearStall()
	}
	assert.Equal(t, []byte("123"), w.written)
}
