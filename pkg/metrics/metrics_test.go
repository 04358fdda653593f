package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kittclouds/treeinduce/pkg/metrics"
	"github.com/kittclouds/treeinduce/pkg/span"
)

func spans(pairs ...[2]int) *span.Set {
	set := span.NewSet()
	for _, p := range pairs {
		set.Add(span.Span{Start: p[0], Length: p[1]})
	}
	return set
}

func TestPrecisionRecallIdenticalSets(t *testing.T) {
	gold := spans([2]int{0, 2}, [2]int{2, 2}, [2]int{0, 4})

	p, r, g := metrics.PrecisionRecall(gold, gold.Clone())
	assert.Equal(t, 3, p)
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, g)
}

func TestPrecisionRecallPartialOverlap(t *testing.T) {
	gold := spans([2]int{0, 2}, [2]int{2, 2}, [2]int{0, 4})
	predicted := spans([2]int{0, 2}, [2]int{1, 3}, [2]int{0, 4})

	p, r, g := metrics.PrecisionRecall(gold, predicted)
	assert.Equal(t, 2, p)
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, g)
}

func TestPrecisionRecallDisjoint(t *testing.T) {
	gold := spans([2]int{0, 3})
	predicted := spans([2]int{1, 2})

	p, r, g := metrics.PrecisionRecall(gold, predicted)
	assert.Zero(t, p)
	assert.Zero(t, r)
	assert.Equal(t, 1, g)
}

func TestAccumulator(t *testing.T) {
	var acc metrics.Accumulator

	gold := spans([2]int{0, 2}, [2]int{2, 2}, [2]int{0, 4})
	acc.Observe(gold, spans([2]int{0, 2}, [2]int{1, 3}, [2]int{0, 4}))
	acc.Observe(gold, gold)

	assert.Equal(t, 5, acc.MatchedPredicted)
	assert.Equal(t, 5, acc.MatchedGold)
	assert.Equal(t, 6, acc.GoldTotal)
	assert.Equal(t, 6, acc.PredictedTotal)

	assert.InDelta(t, 5.0/6.0, acc.Precision(), 1e-12)
	assert.InDelta(t, 5.0/6.0, acc.Recall(), 1e-12)
	assert.InDelta(t, 5.0/6.0, acc.F1(), 1e-12)
}

func TestAccumulatorZeroTotals(t *testing.T) {
	var acc metrics.Accumulator
	assert.Zero(t, acc.Precision())
	assert.Zero(t, acc.Recall())
	assert.Zero(t, acc.F1())
}
