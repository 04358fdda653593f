package span

import (
	"errors"
	"fmt"
)

// ErrNoEnclosing is returned when no span in the tree covers the target.
var ErrNoEnclosing = errors.New("no enclosing constituent found")

// Enclosing resolves the closest enclosing constituent of target within
// treeSpans.
//
// If target is itself a member, it is its own root and sole child. Otherwise
// the root is the minimal-length covering span; ties between equal-length
// covers break toward the smallest start. Children are all members fully
// contained in the root's extent (the root included).
func Enclosing(treeSpans *Set, target Span) (Span, []Span, error) {
	if treeSpans.Contains(target) {
		return target, []Span{target}, nil
	}

	found := false
	var root Span
	for _, sp := range treeSpans.Spans() {
		if !sp.Covers(target) {
			continue
		}
		// Spans() is ordered by start, so the first minimal-length cover
		// seen is the smallest-start one.
		if !found || sp.Length < root.Length {
			root = sp
			found = true
		}
	}
	if !found {
		return Span{}, nil, fmt.Errorf("target %v: %w", target, ErrNoEnclosing)
	}

	var children []Span
	for _, sp := range treeSpans.Spans() {
		if sp.Start >= root.Start && sp.Start+sp.Length <= root.Start+root.Length {
			children = append(children, sp)
		}
	}
	return root, children, nil
}

// EnclosingBatch resolves every target span against its batch element's
// predicted span set. It returns, per batch element, the list of resolved
// roots and the concatenated children sets (deduplicated), ready to serve as
// multi-root queries and constraint sets for the chart.
func EnclosingBatch(predicted []*Set, targets [][]Span) (roots [][]Span, children []*Set, err error) {
	if len(predicted) != len(targets) {
		return nil, nil, fmt.Errorf("batch size mismatch: %d predicted sets, %d target lists", len(predicted), len(targets))
	}

	roots = make([][]Span, len(targets))
	children = make([]*Set, len(targets))
	for b := range targets {
		set := NewSet()
		for _, target := range targets[b] {
			root, kids, err := Enclosing(predicted[b], target)
			if err != nil {
				return nil, nil, fmt.Errorf("batch element %d: %w", b, err)
			}
			roots[b] = append(roots[b], root)
			for _, k := range kids {
				set.Add(k)
			}
		}
		children[b] = set
	}
	return roots, children, nil
}
