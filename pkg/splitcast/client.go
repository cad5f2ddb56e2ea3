package splitcast

import "sync"

// ClientID identifies a registered consumer, unique for the lifetime of
// the Splitter instance that issued it.
type ClientID uint64

// clientContext holds per-client state: a mutex-guarded struct with its
// own condition variable, one per registered consumer. All fields are
// guarded by the owning Splitter's mtx; pullCV is that same mtx paired
// with a dedicated condition so a wake can be targeted at exactly this
// client's waiter, never at "some consumer".
type clientContext struct {
	id      ClientID
	fifo    []*Frame
	drops   uint64
	deleted bool
	pullCV  *sync.Cond
}

func newClientContext(id ClientID, mtx *sync.Mutex) *clientContext {
	return &clientContext{
		id:     id,
		pullCV: sync.NewCond(mtx),
	}
}

// full reports whether the FIFO is at its configured capacity.
func (c *clientContext) full(maxBuffers int) bool {
	return len(c.fifo) >= maxBuffers
}

// push appends f to the tail unconditionally. If the FIFO was already at
// maxBuffers, the head is evicted and drops is incremented: this is the
// shared implementation for both a "still has room" push and a forced
// overflow drop, the caller decides which applies by checking full()
// first if it needs to distinguish them.
func (c *clientContext) push(f *Frame, maxBuffers int) {
	if len(c.fifo) >= maxBuffers {
		evicted := c.fifo[0]
		c.fifo = c.fifo[1:]
		c.drops++
		evicted.release()
	}
	f.retain()
	c.fifo = append(c.fifo, f)
}

// pop removes and returns the head frame. Caller must ensure the FIFO is
// non-empty.
func (c *clientContext) pop() *Frame {
	f := c.fifo[0]
	c.fifo = c.fifo[1:]
	return f
}

// drainToDrops discards every buffered frame, counting each as a drop.
// Used by Flush.
func (c *clientContext) drainToDrops() {
	for _, f := range c.fifo {
		f.release()
	}
	c.drops += uint64(len(c.fifo))
	c.fifo = nil
}
