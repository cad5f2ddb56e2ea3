package splitcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameBytesAndLen(t *testing.T) {
	f := NewFrame([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, f.Bytes())
	assert.Equal(t, 3, f.Len())
}

func TestFrameIdentityEquality(t *testing.T) {
	a := NewFrame([]byte{1})
	b := NewFrame([]byte{1})
	assert.NotSame(t, a, b, "frames with equal content are still distinct handles")
	assert.Same(t, a, a)
}

func TestPooledFrameBufferNotReusedWhileReferenced(t *testing.T) {
	pool := NewFramePool(4)
	f := pool.NewPooledFrame([]byte{9, 9})

	assert.Equal(t, []byte{9, 9}, f.Bytes())

	f.retain() // simulate a second client holding the frame
	f.release()
	// One outstanding reference remains; the buffer must not be reused
	// for an unrelated pooled frame yet.
	other := pool.NewPooledFrame([]byte{1, 2, 3, 4})
	assert.NotEqual(t, f.Bytes(), other.Bytes())
	assert.Equal(t, []byte{9, 9}, f.Bytes())

	f.release() // drops the last reference, returns to pool
}
