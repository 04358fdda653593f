// Package tree provides the bracketed constituency tree value: an
// arena-backed node store (no parent pointers, no cycles), the bracket text
// codec, and the conversion to flat constituent spans.
package tree

import (
	"fmt"
	"strings"

	"github.com/kittclouds/treeinduce/pkg/span"
)

// node is a tagged arena entry: a leaf holds a token, an internal node holds
// child indices into the arena.
type node struct {
	token    string
	children []int
	leaf     bool
}

// Tree is a constituency tree over a token sequence. Internal nodes are
// usually binary (the chart only ever produces binary ones) but the bracket
// codec accepts any arity, since annotation files carry n-ary groups.
type Tree struct {
	nodes []node
	root  int
}

// Leaf creates a single-leaf tree.
func Leaf(token string) *Tree {
	return &Tree{nodes: []node{{token: token, leaf: true}}, root: 0}
}

// Branch joins subtrees under a new root.
func Branch(children ...*Tree) *Tree {
	t := &Tree{}
	var copyFrom func(src *Tree, idx int) int
	copyFrom = func(src *Tree, idx int) int {
		n := src.nodes[idx]
		if n.leaf {
			t.nodes = append(t.nodes, node{token: n.token, leaf: true})
			return len(t.nodes) - 1
		}
		kids := make([]int, len(n.children))
		for i, c := range n.children {
			kids[i] = copyFrom(src, c)
		}
		t.nodes = append(t.nodes, node{children: kids})
		return len(t.nodes) - 1
	}

	kids := make([]int, len(children))
	for i, c := range children {
		kids[i] = copyFrom(c, c.root)
	}
	t.nodes = append(t.nodes, node{children: kids})
	t.root = len(t.nodes) - 1
	return t
}

// Size returns the number of leaves.
func (t *Tree) Size() int {
	return t.size(t.root)
}

func (t *Tree) size(idx int) int {
	n := t.nodes[idx]
	if n.leaf {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += t.size(c)
	}
	return total
}

// Leaves returns the leaf tokens in left-to-right order.
func (t *Tree) Leaves() []string {
	var out []string
	var walk func(idx int)
	walk = func(idx int) {
		n := t.nodes[idx]
		if n.leaf {
			out = append(out, n.token)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// ReplaceLeaves substitutes tokens into the leaves in left-to-right order.
// The token count must match the leaf count.
func (t *Tree) ReplaceLeaves(tokens []string) error {
	pos := 0
	var walk func(idx int)
	walk = func(idx int) {
		if t.nodes[idx].leaf {
			if pos < len(tokens) {
				t.nodes[idx].token = tokens[pos]
			}
			pos++
			return
		}
		for _, c := range t.nodes[idx].children {
			walk(c)
		}
	}
	walk(t.root)
	if pos != len(tokens) {
		return fmt.Errorf("leaf count mismatch: tree has %d leaves, got %d tokens", pos, len(tokens))
	}
	return nil
}

// Spans returns the (start, length) span of every internal node in
// post-order. Leaves contribute no span; a group of any arity contributes
// exactly one.
func (t *Tree) Spans() []span.Span {
	var spans []span.Span
	var walk func(idx, pos int) int
	walk = func(idx, pos int) int {
		n := t.nodes[idx]
		if n.leaf {
			return 1
		}
		size := 0
		for _, c := range n.children {
			size += walk(c, pos+size)
		}
		spans = append(spans, span.Span{Start: pos, Length: size})
		return size
	}
	walk(t.root, 0)
	return spans
}

// SpanSet returns Spans as a set.
func (t *Tree) SpanSet() *span.Set {
	return span.NewSet(t.Spans()...)
}

// String renders the bracket text form: space-separated tokens with "(" and
// ")" delimiters.
func (t *Tree) String() string {
	var sb strings.Builder
	var walk func(idx int)
	walk = func(idx int) {
		n := t.nodes[idx]
		if n.leaf {
			sb.WriteString(n.token)
			return
		}
		sb.WriteString("( ")
		for i, c := range n.children {
			if i > 0 {
				sb.WriteString(" ")
			}
			walk(c)
		}
		sb.WriteString(" )")
	}
	walk(t.root)
	return sb.String()
}
