package store

import "sync/atomic"

// sequence is a monotonic logical clock for journal ordering.
//
// Thread-safety: safe for concurrent use (atomic operations).
type sequence struct {
	n atomic.Int64
}

// newSequenceAt creates a sequence whose next value is start+1.
// Used on Open to resume from the last stored seq.
func newSequenceAt(start int64) *sequence {
	s := &sequence{}
	s.n.Store(start)
	return s
}

// next returns the next sequence number and increments the counter.
func (s *sequence) next() int64 {
	return s.n.Add(1)
}

// current returns the last issued sequence number.
func (s *sequence) current() int64 {
	return s.n.Load()
}

// advance moves the counter forward to at least v.
func (s *sequence) advance(v int64) {
	for {
		cur := s.n.Load()
		if cur >= v || s.n.CompareAndSwap(cur, v) {
			return
		}
	}
}
