// Package metrics provides unlabeled span precision/recall between a
// predicted bracketing and a gold bracketing, plus a corpus-level
// accumulator.
package metrics

import "github.com/kittclouds/treeinduce/pkg/span"

// PrecisionRecall compares two span sets by value equality and returns the
// raw counts: predicted spans also present in gold, gold spans also present
// in predicted, and the gold set size. No normalization happens here; the
// caller divides totals accumulated across a corpus.
func PrecisionRecall(gold, predicted *span.Set) (matchedInPredicted, matchedInGold, goldCount int) {
	for _, s := range predicted.Spans() {
		if gold.Contains(s) {
			matchedInPredicted++
		}
	}
	for _, s := range gold.Spans() {
		if predicted.Contains(s) {
			matchedInGold++
		}
	}
	return matchedInPredicted, matchedInGold, gold.Len()
}

// Accumulator keeps running precision/recall totals across a corpus.
type Accumulator struct {
	MatchedPredicted int
	MatchedGold      int
	GoldTotal        int
	PredictedTotal   int
}

// Observe folds one example's counts into the totals.
func (a *Accumulator) Observe(gold, predicted *span.Set) {
	p, r, g := PrecisionRecall(gold, predicted)
	a.MatchedPredicted += p
	a.MatchedGold += r
	a.GoldTotal += g
	a.PredictedTotal += predicted.Len()
}

// Precision returns corpus-level precision, zero when nothing was predicted.
func (a *Accumulator) Precision() float64 {
	if a.PredictedTotal == 0 {
		return 0
	}
	return float64(a.MatchedPredicted) / float64(a.PredictedTotal)
}

// Recall returns corpus-level recall, zero when the gold corpus is empty.
func (a *Accumulator) Recall() float64 {
	if a.GoldTotal == 0 {
		return 0
	}
	return float64(a.MatchedGold) / float64(a.GoldTotal)
}

// F1 returns the harmonic mean of corpus precision and recall.
func (a *Accumulator) F1() float64 {
	p, r := a.Precision(), a.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
