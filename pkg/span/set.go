package span

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a set of spans with value-equality membership. Spans are packed
// into uint32 keys and stored in a roaring bitmap: membership tests are the
// hot operation inside the chart fill loop, and bitmaps keep them cheap for
// the large constraint sets produced by chain expansion.
//
// Packing limits Start and Length to 16 bits each, far beyond any sequence
// the chart can afford to fill anyway.
type Set struct {
	bm *roaring.Bitmap
}

// NewSet creates an empty span set.
func NewSet(spans ...Span) *Set {
	s := &Set{bm: roaring.New()}
	for _, sp := range spans {
		s.Add(sp)
	}
	return s
}

func pack(s Span) uint32 {
	return uint32(s.Start)<<16 | uint32(s.Length)&0xffff
}

func unpack(key uint32) Span {
	return Span{Start: int(key >> 16), Length: int(key & 0xffff)}
}

// Add inserts a span. Duplicates are a no-op.
func (s *Set) Add(sp Span) {
	s.bm.Add(pack(sp))
}

// Contains reports membership by value equality.
func (s *Set) Contains(sp Span) bool {
	return s.bm.Contains(pack(sp))
}

// Len returns the number of distinct spans.
func (s *Set) Len() int {
	return int(s.bm.GetCardinality())
}

// Spans returns the members ordered by (Start, Length). Bitmap iteration is
// ascending over packed keys, which sorts exactly that way.
func (s *Set) Spans() []Span {
	out := make([]Span, 0, s.Len())
	it := s.bm.Iterator()
	for it.HasNext() {
		out = append(out, unpack(it.Next()))
	}
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return &Set{bm: s.bm.Clone()}
}
