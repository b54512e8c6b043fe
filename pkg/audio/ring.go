// Package audio provides the lock-free single-producer/single-consumer
// sample ring the APU pushes stereo frames into and the host audio
// callback drains from. The emulation thread only ever touches the
// producer end; the host's audio thread only ever touches the consumer
// end, so the only synchronization required is the pair of atomic
// cursors below — no mutex sits on the hot path in either direction.
package audio

import "sync/atomic"

// Ring is a bounded SPSC queue of interleaved stereo float32 samples.
// Capacity is rounded up to the next power of two so index wrapping can
// use a mask instead of a modulo.
type Ring struct {
	buf  []float32
	mask uint64

	head uint64 // next write index, advanced only by the producer
	tail uint64 // next read index, advanced only by the consumer

	lastL, lastR float32 // held for underflow so Pop never produces a pop/click
}

// NewRing returns a Ring able to hold at least capacity samples.
func NewRing(capacity int) *Ring {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		buf:  make([]float32, size),
		mask: uint64(size - 1),
	}
}

// PushStereo enqueues one L/R sample pair. If the ring is full the pair
// is silently discarded — per spec, the consumer is too slow and
// dropping new samples is preferable to blocking the emulation thread.
func (r *Ring) PushStereo(left, right float32) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head-tail >= uint64(len(r.buf))-1 {
		return // full, drop
	}
	idx := head & r.mask
	r.buf[idx] = left
	r.buf[(idx+1)&r.mask] = right
	atomic.StoreUint64(&r.head, head+2)
}

// PopStereo dequeues one L/R sample pair. On underflow it replays the
// last pair it ever returned, avoiding an audible discontinuity.
func (r *Ring) PopStereo() (left, right float32) {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	if head-tail < 2 {
		return r.lastL, r.lastR
	}
	idx := tail & r.mask
	left = r.buf[idx]
	right = r.buf[(idx+1)&r.mask]
	atomic.StoreUint64(&r.tail, tail+2)
	r.lastL, r.lastR = left, right
	return left, right
}

// Len reports the number of buffered samples (not pairs) available to
// the consumer right now.
func (r *Ring) Len() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	return int(head - tail)
}

// Producer is the narrow write-only view of a Ring handed to the APU.
// Keeping the interface narrow stops the emulation side from ever
// accidentally reading host-owned state.
type Producer interface {
	PushStereo(left, right float32)
}

var _ Producer = (*Ring)(nil)
