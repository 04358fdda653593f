package tree

import (
	"fmt"

	"github.com/kittclouds/treeinduce/pkg/span"
)

// FromSpans rebuilds a binary tree over tokens from the span set of its
// internal nodes (the inverse of Spans for binary trees). The set must
// describe a full binary bracketing: every multi-token constituent splits
// into two children that are single tokens or members of the set.
func FromSpans(tokens []string, spans *span.Set) (*Tree, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("tree: no tokens")
	}

	t := &Tree{}
	var build func(pos, length int) (int, error)
	build = func(pos, length int) (int, error) {
		if length == 1 {
			t.nodes = append(t.nodes, node{token: tokens[pos], leaf: true})
			return len(t.nodes) - 1, nil
		}
		for k := 1; k < length; k++ {
			leftOK := k == 1 || spans.Contains(span.Span{Start: pos, Length: k})
			rightOK := length-k == 1 || spans.Contains(span.Span{Start: pos + k, Length: length - k})
			if !leftOK || !rightOK {
				continue
			}
			left, err := build(pos, k)
			if err != nil {
				return 0, err
			}
			right, err := build(pos+k, length-k)
			if err != nil {
				return 0, err
			}
			t.nodes = append(t.nodes, node{children: []int{left, right}})
			return len(t.nodes) - 1, nil
		}
		return 0, fmt.Errorf("tree: no split found for constituent (%d,%d)", pos, length)
	}

	root, err := build(0, len(tokens))
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}
