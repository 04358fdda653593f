package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalanced reports malformed bracket text.
var ErrUnbalanced = errors.New("unbalanced bracket text")

// open marks an unmatched "(" on the parse stack.
const open = -1

// Parse reads bracket text ("( the ( quick fox ) )") into a Tree. Tokens are
// whitespace-separated; "(" and ")" must stand alone. Unbalanced delimiters
// and empty groups are reported as errors rather than producing a partial
// tree.
func Parse(text string) (*Tree, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnbalanced)
	}

	t := &Tree{}
	var stack []int

	for _, tok := range fields {
		switch tok {
		case "(":
			stack = append(stack, open)
		case ")":
			// Pop back to the matching open bracket.
			var kids []int
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top == open {
					matched = true
					break
				}
				kids = append(kids, top)
			}
			if !matched {
				return nil, fmt.Errorf("%w: unexpected \")\"", ErrUnbalanced)
			}
			if len(kids) == 0 {
				return nil, fmt.Errorf("%w: empty group", ErrUnbalanced)
			}
			// kids were popped in reverse order.
			for i, j := 0, len(kids)-1; i < j; i, j = i+1, j-1 {
				kids[i], kids[j] = kids[j], kids[i]
			}
			t.nodes = append(t.nodes, node{children: kids})
			stack = append(stack, len(t.nodes)-1)
		default:
			t.nodes = append(t.nodes, node{token: tok, leaf: true})
			stack = append(stack, len(t.nodes)-1)
		}
	}

	if len(stack) != 1 || stack[0] == open {
		return nil, fmt.Errorf("%w: %d items left on stack", ErrUnbalanced, len(stack))
	}
	t.root = stack[0]
	return t, nil
}
