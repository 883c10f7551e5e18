package slcand

// QueueSize is the hard capacity of the serial hand-off queues.
const QueueSize = 64

// Queue is a fixed-capacity FIFO byte queue backed by a ring buffer. The
// producer advances tail, the consumer advances head; a push against a full
// queue fails instead of overwriting. The queue itself does no locking: each
// end belongs to exactly one context at a time and the Bridge serializes
// access the way the firmware masks interrupts around a push or pop.
type Queue struct {
	buf   [QueueSize]byte
	head  int
	tail  int
	count int
}

// Push appends a byte, returning ErrQueueFull when the queue is at capacity.
func (q *Queue) Push(b byte) error {
	if q.count == QueueSize {
		return ErrQueueFull
	}
	q.buf[q.tail] = b
	q.tail = (q.tail + 1) % QueueSize
	q.count++
	return nil
}

// Pop removes and returns the oldest byte.
func (q *Queue) Pop() (byte, bool) {
	if q.count == 0 {
		return 0, false
	}
	b := q.buf[q.head]
	q.head = (q.head + 1) % QueueSize
	q.count--
	return b, true
}

func (q *Queue) Len() int {
	return q.count
}

// Free returns the remaining capacity.
func (q *Queue) Free() int {
	return QueueSize - q.count
}

func (q *Queue) Clear() {
	q.head = 0
	q.tail = 0
	q.count = 0
}
