// Package span provides the constituent span representation shared by the
// chart engine, the annotators and the metrics: a (start, length) pair over
// token positions, roaring-backed span sets, canonical branching chains and
// closest-enclosing-constituent resolution.
package span

import "fmt"

// Span is a contiguous run of tokens: Length tokens beginning at Start.
// Two spans are equal iff both fields match.
type Span struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the index of the last token covered by the span.
func (s Span) End() int { return s.Start + s.Length - 1 }

// Covers reports whether s fully contains other (boundaries inclusive).
func (s Span) Covers(other Span) bool {
	return s.Start <= other.Start && s.End() >= other.End()
}

func (s Span) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.Length)
}

// Valid reports whether the span fits a sequence of n tokens.
func (s Span) Valid(n int) bool {
	return s.Start >= 0 && s.Length >= 1 && s.Start+s.Length <= n
}

// LeftChain expands a flat span into the fully left-branching chain of
// constituents consistent with chart indexing: each larger constituent
// absorbs one token on its right.
//
//	(start, L) -> (start, 2), (start, 3), ..., (start, L)
//
// Spans of length < 2 expand to nothing.
func LeftChain(s Span) []Span {
	var out []Span
	for size := 2; size <= s.Length; size++ {
		out = append(out, Span{Start: s.Start, Length: size})
	}
	return out
}

// RightChain expands a flat span into the fully right-branching chain:
// each larger constituent absorbs one token on its left, anchored at the
// span's last token.
//
//	(start, L) -> (end-1, 2), (end-2, 3), ..., (start, L)
func RightChain(s Span) []Span {
	var out []Span
	end := s.End()
	for i := 1; i < s.Length; i++ {
		out = append(out, Span{Start: end - i, Length: i + 1})
	}
	return out
}

// LeftChainBatch applies LeftChain to every span of every batch element.
func LeftChainBatch(batch [][]Span) []*Set {
	out := make([]*Set, len(batch))
	for b, spans := range batch {
		set := NewSet()
		for _, s := range spans {
			for _, link := range LeftChain(s) {
				set.Add(link)
			}
		}
		out[b] = set
	}
	return out
}

// RightChainBatch applies RightChain to every span of every batch element.
func RightChainBatch(batch [][]Span) []*Set {
	out := make([]*Set, len(batch))
	for b, spans := range batch {
		set := NewSet()
		for _, s := range spans {
			for _, link := range RightChain(s) {
				set.Add(link)
			}
		}
		out[b] = set
	}
	return out
}
