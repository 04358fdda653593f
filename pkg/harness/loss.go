// Package harness assembles the margin-based training signal from chart
// scores: the externally proposed best tree should not outscore the tree
// agreeing with the gold annotations by more than the margin.
package harness

import (
	"fmt"

	"github.com/kittclouds/treeinduce/pkg/chart"
	"github.com/kittclouds/treeinduce/pkg/span"
)

// Loss holds the margin hyperparameter.
type Loss struct {
	Margin float64
}

// WholeTree scores the whole-sequence root twice — once constrained toward
// the gold annotation spans (expanded through right-branching chains), once
// constrained toward the proposed best-tree spans — and returns the
// per-element margins max-gold+margin plus their batch mean.
func (l Loss) WholeTree(p *chart.Potentials, goldSpans, maxSpans [][]span.Span) ([]float64, float64, error) {
	if len(goldSpans) != len(maxSpans) {
		return nil, 0, fmt.Errorf("harness: %d gold lists, %d max lists", len(goldSpans), len(maxSpans))
	}

	engine, err := chart.New(chart.Config{
		BatchSize: p.BatchSize(),
		Length:    p.Length(),
		Mode:      chart.ModeBest,
	})
	if err != nil {
		return nil, 0, err
	}

	goldScores, err := engine.Score(p, span.RightChainBatch(goldSpans))
	if err != nil {
		return nil, 0, fmt.Errorf("harness: gold score: %w", err)
	}

	maxSets := make([]*span.Set, len(maxSpans))
	for b, spans := range maxSpans {
		maxSets[b] = span.NewSet(spans...)
	}
	maxScores, err := engine.Score(p, maxSets)
	if err != nil {
		return nil, 0, fmt.Errorf("harness: max score: %w", err)
	}

	margins := make([]float64, len(goldScores))
	total := 0.0
	for b := range margins {
		margins[b] = maxScores[b] - goldScores[b] + l.Margin
		total += margins[b]
	}
	return margins, total / float64(len(margins)), nil
}

// ClosestAncestor compares each target annotation span against the smallest
// proposed constituent enclosing it: the target's right-branching chain is
// scored with the target as root, the enclosing constituent is scored with
// the proposal's inner spans as constraints, and targets the proposal
// already got right (root equals target) contribute nothing. Returns the
// batch-mean loss.
func (l Loss) ClosestAncestor(p *chart.Potentials, maxSpans, targetSpans [][]span.Span) (float64, error) {
	if len(maxSpans) != len(targetSpans) {
		return 0, fmt.Errorf("harness: %d max lists, %d target lists", len(maxSpans), len(targetSpans))
	}

	predicted := make([]*span.Set, len(maxSpans))
	for b, spans := range maxSpans {
		predicted[b] = span.NewSet(spans...)
	}
	roots, children, err := span.EnclosingBatch(predicted, targetSpans)
	if err != nil {
		return 0, fmt.Errorf("harness: resolve ancestors: %w", err)
	}

	engine, err := chart.New(chart.Config{
		BatchSize: p.BatchSize(),
		Length:    p.Length(),
		Mode:      chart.ModeGiven,
	})
	if err != nil {
		return 0, err
	}

	goldScores, err := engine.ScoreRoots(p, span.RightChainBatch(targetSpans), targetSpans)
	if err != nil {
		return 0, fmt.Errorf("harness: gold roots: %w", err)
	}
	maxScores, err := engine.ScoreRoots(p, children, roots)
	if err != nil {
		return 0, fmt.Errorf("harness: enclosing roots: %w", err)
	}

	total := 0.0
	for b := range targetSpans {
		for i, target := range targetSpans[b] {
			if roots[b][i] == target {
				continue
			}
			total += maxScores[b][i] - goldScores[b][i] + l.Margin
		}
	}
	return total / float64(len(targetSpans)), nil
}

// Annotated returns the batch indices that carry at least one annotation
// span; elements without spans contribute nothing to the loss and are
// dropped from scoring batches.
func Annotated(spans [][]span.Span) []int {
	var idx []int
	for b, list := range spans {
		if len(list) > 0 {
			idx = append(idx, b)
		}
	}
	return idx
}
