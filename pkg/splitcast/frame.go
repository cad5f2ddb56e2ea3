package splitcast

import "sync"

// Frame is an opaque, immutable, shared-ownership byte buffer. Two Frame
// pointers are "the same frame" by Go's own pointer identity, which is all
// callers ever need: the Splitter never inspects or mutates payload bytes.
//
// Frame carries a small refcount so that pool-backed frames (see
// NewPooledFrame) can return their backing array once no client's FIFO
// still references them. Frames built with NewFrame over caller-owned
// memory are never pooled; retain/release on them is bookkeeping only.
type Frame struct {
	payload []byte
	refs    int32
	mu      sync.Mutex
	pool    *FramePool // nil for non-pooled frames
}

// NewFrame wraps b as a Frame. b must not be mutated by the caller after
// this call; the Splitter and its clients treat it as immutable.
//
// The returned Frame starts at refcount 1, representing the producer's
// own handle. Splitter.Put retains it once per client that accepts it
// into its FIFO; the producer should release its own handle once it is
// done submitting the frame (typically right after Put returns), the
// same get/put discipline any pooled-buffer allocator expects from its
// callers.
func NewFrame(b []byte) *Frame {
	return &Frame{payload: b, refs: 1}
}

// Release drops the caller's own handle to the frame. Safe to call
// exactly once per handle obtained from NewFrame, NewPooledFrame, or
// Splitter.Get.
func (f *Frame) Release() { f.release() }

// Bytes returns the frame's immutable payload.
func (f *Frame) Bytes() []byte { return f.payload }

// Len returns the payload length.
func (f *Frame) Len() int { return len(f.payload) }

// retain increments the refcount. Called once per client that accepts the
// frame into its FIFO (see Splitter.Put).
func (f *Frame) retain() {
	f.mu.Lock()
	f.refs++
	f.mu.Unlock()
}

// release decrements the refcount, returning the backing buffer to its
// pool when it reaches zero. Called once per FIFO slot the frame is
// evicted from, whether by Get, by an overflow drop, or by Flush.
func (f *Frame) release() {
	f.mu.Lock()
	f.refs--
	done := f.refs == 0
	pool := f.pool
	payload := f.payload
	f.mu.Unlock()
	if done && pool != nil {
		pool.put(payload)
	}
}

// FramePool is a sync.Pool-backed allocator for fixed-capacity frame
// buffers.
type FramePool struct {
	size int
	p    sync.Pool
}

// NewFramePool returns a pool of reusable buffers of the given capacity.
func NewFramePool(size int) *FramePool {
	fp := &FramePool{size: size}
	fp.p.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return fp
}

// NewPooledFrame copies all of src into a pooled buffer and returns
// a Frame wrapping it. The buffer is returned to the pool automatically
// once every client holding the frame has released it.
func (fp *FramePool) NewPooledFrame(src []byte) *Frame {
	bp := fp.p.Get().(*[]byte)
	buf := (*bp)[:0]
	if cap(buf) < len(src) {
		buf = make([]byte, len(src))
	} else {
		buf = buf[:len(src)]
	}
	copy(buf, src)
	return &Frame{payload: buf, refs: 1, pool: fp}
}

func (fp *FramePool) put(b []byte) {
	b = b[:0]
	fp.p.Put(&b)
}
