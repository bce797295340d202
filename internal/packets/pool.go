package packets

import "sync"

// Two size classes: most acks (PUBACK/PUBREC/PUBREL/PUBCOMP, SUBACK,
// UNSUBACK) are a handful of bytes and don't need a 4KB allocation to
// round-trip through the pool; PUBLISH payloads and the reader's own
// scratch space for a packet body still want the larger class. Anything
// bigger than largeFrameSize just allocates, since pooling a one-off
// oversized frame would pin memory for traffic that won't recur.
const (
	smallFrameSize = 256
	largeFrameSize = 4096
)

var (
	smallFramePool = sync.Pool{
		New: func() any {
			buf := make([]byte, smallFrameSize)
			return &buf
		},
	}
	largeFramePool = sync.Pool{
		New: func() any {
			buf := make([]byte, largeFrameSize)
			return &buf
		},
	}
)

// GetBuffer returns a pooled buffer able to hold at least size bytes,
// choosing the smallest size class that fits.
func GetBuffer(size int) *[]byte {
	switch {
	case size <= smallFrameSize:
		return smallFramePool.Get().(*[]byte)
	case size <= largeFrameSize:
		return largeFramePool.Get().(*[]byte)
	default:
		buf := make([]byte, size)
		return &buf
	}
}

// PutBuffer returns bufPtr to whichever size-classed pool it was drawn
// from. A buffer from neither class (an oversized one-off) is dropped.
func PutBuffer(bufPtr *[]byte) {
	switch cap(*bufPtr) {
	case smallFrameSize:
		smallFramePool.Put(bufPtr)
	case largeFrameSize:
		largeFramePool.Put(bufPtr)
	}
}
