package pool

import "sync"

var byteSlicePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 1024)
		return &b
	},
}

// AcquireBuffer gets an empty byte slice from the pool.
func AcquireBuffer() *[]byte {
	b := byteSlicePool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// ReleaseBuffer returns a byte slice to the pool.
func ReleaseBuffer(b *[]byte) {
	if b == nil {
		return
	}
	// Don't return oversized slices
	if cap(*b) <= 65536 {
		byteSlicePool.Put(b)
	}
}
