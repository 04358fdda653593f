package span_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/treeinduce/pkg/span"
)

func TestCovers(t *testing.T) {
	outer := span.Span{Start: 1, Length: 4}
	assert.True(t, outer.Covers(span.Span{Start: 1, Length: 4}))
	assert.True(t, outer.Covers(span.Span{Start: 2, Length: 2}))
	assert.True(t, outer.Covers(span.Span{Start: 4, Length: 1}))
	assert.False(t, outer.Covers(span.Span{Start: 0, Length: 2}))
	assert.False(t, outer.Covers(span.Span{Start: 4, Length: 2}))
}

func TestLeftChain(t *testing.T) {
	got := span.LeftChain(span.Span{Start: 2, Length: 4})
	assert.Equal(t, []span.Span{
		{Start: 2, Length: 2},
		{Start: 2, Length: 3},
		{Start: 2, Length: 4},
	}, got)

	assert.Empty(t, span.LeftChain(span.Span{Start: 3, Length: 1}))
}

func TestRightChain(t *testing.T) {
	got := span.RightChain(span.Span{Start: 2, Length: 4})
	assert.Equal(t, []span.Span{
		{Start: 4, Length: 2},
		{Start: 3, Length: 3},
		{Start: 2, Length: 4},
	}, got)

	assert.Empty(t, span.RightChain(span.Span{Start: 0, Length: 1}))
}

func TestChainBatchesMergeSpans(t *testing.T) {
	batch := [][]span.Span{
		{{Start: 0, Length: 3}, {Start: 4, Length: 2}},
		nil,
	}

	left := span.LeftChainBatch(batch)
	require.Len(t, left, 2)
	assert.Equal(t, []span.Span{
		{Start: 0, Length: 2},
		{Start: 0, Length: 3},
		{Start: 4, Length: 2},
	}, left[0].Spans())
	assert.Zero(t, left[1].Len())

	right := span.RightChainBatch(batch)
	assert.Equal(t, []span.Span{
		{Start: 0, Length: 3},
		{Start: 1, Length: 2},
		{Start: 4, Length: 2},
	}, right[0].Spans())
}

func TestSetMembership(t *testing.T) {
	set := span.NewSet(span.Span{Start: 0, Length: 2}, span.Span{Start: 2, Length: 2})

	assert.True(t, set.Contains(span.Span{Start: 0, Length: 2}))
	assert.False(t, set.Contains(span.Span{Start: 0, Length: 3}))
	assert.False(t, set.Contains(span.Span{Start: 1, Length: 2}))
	assert.Equal(t, 2, set.Len())

	// Duplicates collapse.
	set.Add(span.Span{Start: 0, Length: 2})
	assert.Equal(t, 2, set.Len())
}

func TestSetCloneIsIndependent(t *testing.T) {
	set := span.NewSet(span.Span{Start: 1, Length: 2})
	clone := set.Clone()
	clone.Add(span.Span{Start: 5, Length: 3})

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, clone.Len())
}
