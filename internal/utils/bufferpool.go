// Package utils provides small shared helpers used across GBF's
// internal packages: buffer pooling for gbfreader's coalesced field
// reads, and the overflow-checked arithmetic in overflow.go.
package utils

import "sync"

// bufferPool's 4096-byte floor matches gbfreader's coalesceGap (the
// maximum byte gap between two fields that still get merged into one
// read): most coalesced groups fit a field or two within that span, so
// the pooled buffer rarely needs to grow past its initial allocation.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 4096)
	},
}

// GetBuffer returns a byte slice of exactly size bytes from the pool,
// allocating fresh (with headroom for reuse) if the pooled buffer is
// too small.
func GetBuffer(size int) []byte {
	buf := bufferPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size, size*2) // Increase capacity.
	}
	return buf[:size]
}

// ReleaseBuffer returns a buffer obtained from GetBuffer to the pool.
func ReleaseBuffer(buf []byte) {
	//nolint:staticcheck // SA6002: slice descriptor copy is acceptable for sync.Pool
	bufferPool.Put(buf[:0])
}
