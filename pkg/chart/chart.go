// Package chart implements the constrained span-scoring dynamic program: a
// triangular chart of per-batch-element scores filled bottom-up, combining
// child scores with a split potential, with optional per-batch-element
// forced splits injected from external span constraints.
package chart

import (
	"fmt"

	"github.com/kittclouds/treeinduce/pkg/span"
)

// Mode selects how a cell's split is chosen.
type Mode int

const (
	// ModeBest takes the argmax split (first index on ties) unless a
	// constraint forces one, in which case the forced split wins regardless
	// of score.
	ModeBest Mode = iota

	// ModeGiven always takes the forced split. Cells where the constraint
	// set forces nothing fall back to split index 0; queried root cells are
	// unaffected as long as their constraint chains are complete, since
	// every cell under a complete chain is forced.
	ModeGiven
)

// LeafScore is the identity value every length-1 cell is initialized to.
const LeafScore = 1.0

// Config fixes an engine's dimensions and selection mode at construction.
type Config struct {
	BatchSize int
	Length    int
	Mode      Mode
}

// Engine fills and queries charts for one (batch size, length, mode)
// configuration. It keeps no chart state between calls; each scoring call
// owns its chart exclusively and copies scores out.
type Engine struct {
	batchSize int
	length    int
	mode      Mode
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("chart: batch size %d, want >= 1", cfg.BatchSize)
	}
	if cfg.Length < 1 {
		return nil, fmt.Errorf("chart: length %d, want >= 1", cfg.Length)
	}
	if cfg.Mode != ModeBest && cfg.Mode != ModeGiven {
		return nil, fmt.Errorf("chart: unknown mode %d", cfg.Mode)
	}
	return &Engine{batchSize: cfg.BatchSize, length: cfg.Length, mode: cfg.Mode}, nil
}

// AmbiguousConstraintError reports a constraint set that forces two
// different splits for the same batch element in the same cell: the set
// contains overlapping constituents and the scoring call is aborted.
type AmbiguousConstraintError struct {
	Level, Pos  int
	Batch       int
	First, Next int // the two forced split indices
}

func (e *AmbiguousConstraintError) Error() string {
	return fmt.Sprintf(
		"ambiguous constraint at cell (level=%d, pos=%d) batch element %d: splits %d and %d both forced",
		e.Level, e.Pos, e.Batch, e.First, e.Next)
}

// Score fills the chart and returns the whole-sequence root score vector,
// one value per batch element. constraints may be nil (fully unconstrained)
// or hold one span set per batch element; nil entries mean no constraints
// for that element.
func (e *Engine) Score(p *Potentials, constraints []*span.Set) ([]float64, error) {
	cells, _, err := e.fill(p, constraints)
	if err != nil {
		return nil, err
	}
	out := make([]float64, e.batchSize)
	copy(out, cells[e.length-1][0])
	return out, nil
}

// ScoreRoots fills the chart once and reads out, per batch element, the
// scores of the requested (start, length) root spans. Several disjoint
// constituents can be scored in one pass this way.
func (e *Engine) ScoreRoots(p *Potentials, constraints []*span.Set, roots [][]span.Span) ([][]float64, error) {
	if len(roots) != e.batchSize {
		return nil, fmt.Errorf("chart: %d root query lists, want %d", len(roots), e.batchSize)
	}
	for b, list := range roots {
		for _, r := range list {
			if !r.Valid(e.length) {
				return nil, fmt.Errorf("chart: root query %v out of range for batch element %d (length %d)", r, b, e.length)
			}
		}
	}

	cells, _, err := e.fill(p, constraints)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, e.batchSize)
	for b, list := range roots {
		scores := make([]float64, len(list))
		for i, r := range list {
			scores[i] = cells[r.Length-1][r.Start][b]
		}
		out[b] = scores
	}
	return out, nil
}

// BestTree fills the chart unconstrained and backtraces the chosen splits,
// returning the spans of the highest-scoring binary tree per batch element
// (every internal node, the whole-sequence root included). Only meaningful
// for ModeBest engines.
func (e *Engine) BestTree(p *Potentials) ([][]span.Span, error) {
	if e.mode != ModeBest {
		return nil, fmt.Errorf("chart: BestTree requires ModeBest")
	}
	_, back, err := e.fill(p, nil)
	if err != nil {
		return nil, err
	}

	out := make([][]span.Span, e.batchSize)
	for b := 0; b < e.batchSize; b++ {
		var spans []span.Span
		var walk func(level, pos int)
		walk = func(level, pos int) {
			if level == 0 {
				return
			}
			idx := back[level][pos][b]
			walk(idx, pos)
			walk(level-idx-1, pos+idx+1)
			spans = append(spans, span.Span{Start: pos, Length: level + 1})
		}
		walk(e.length-1, 0)
		out[b] = spans
	}
	return out, nil
}

// fill runs the bottom-up pass and returns the chart cells and per-cell
// chosen split indices. The chart lives only for the duration of the call.
func (e *Engine) fill(p *Potentials, constraints []*span.Set) (cells [][][]float64, back [][][]int, err error) {
	if p.batchSize != e.batchSize || p.length != e.length {
		return nil, nil, fmt.Errorf("chart: potentials sized (batch=%d, length=%d), engine wants (batch=%d, length=%d)",
			p.batchSize, p.length, e.batchSize, e.length)
	}
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	if constraints != nil && len(constraints) != e.batchSize {
		return nil, nil, fmt.Errorf("chart: %d constraint sets, want %d", len(constraints), e.batchSize)
	}

	cells = make([][][]float64, e.length)
	back = make([][][]int, e.length)
	for level := 0; level < e.length; level++ {
		positions := e.length - level
		cells[level] = make([][]float64, positions)
		back[level] = make([][]int, positions)
		for pos := 0; pos < positions; pos++ {
			cells[level][pos] = make([]float64, e.batchSize)
			back[level][pos] = make([]int, e.batchSize)
		}
	}
	for pos := 0; pos < e.length; pos++ {
		for b := 0; b < e.batchSize; b++ {
			cells[0][pos][b] = LeafScore
		}
	}

	// Scratch reused across cells.
	scores := make([][]float64, e.length)
	for i := range scores {
		scores[i] = make([]float64, e.batchSize)
	}
	forced := make([]int, e.batchSize)
	isForced := make([]bool, e.batchSize)

	for level := 1; level < e.length; level++ {
		for pos := 0; pos < e.length-level; pos++ {
			n := level // number of possible splits

			for b := 0; b < e.batchSize; b++ {
				forced[b] = 0
				isForced[b] = false
			}

			for idx := 0; idx < n; idx++ {
				left := cells[idx][pos]
				right := cells[level-idx-1][pos+idx+1]
				pot := p.At(level, pos, idx)
				row := scores[idx]
				for b := 0; b < e.batchSize; b++ {
					row[b] = left[b] + right[b] + pot[b]
				}

				if constraints == nil {
					continue
				}
				lSpan := span.Span{Start: pos, Length: idx + 1}
				rSpan := span.Span{Start: pos + idx + 1, Length: level - idx}
				for b := 0; b < e.batchSize; b++ {
					set := constraints[b]
					if set == nil {
						continue
					}
					leftIn := lSpan.Length == 1 || set.Contains(lSpan)
					rightIn := rSpan.Length == 1 || set.Contains(rSpan)
					if leftIn && rightIn {
						if isForced[b] {
							return nil, nil, &AmbiguousConstraintError{
								Level: level, Pos: pos, Batch: b,
								First: forced[b], Next: idx,
							}
						}
						forced[b] = idx
						isForced[b] = true
					}
				}
			}

			cell := cells[level][pos]
			choice := back[level][pos]
			for b := 0; b < e.batchSize; b++ {
				idx := 0
				switch e.mode {
				case ModeBest:
					if isForced[b] {
						idx = forced[b]
					} else {
						best := scores[0][b]
						for i := 1; i < n; i++ {
							if scores[i][b] > best {
								best = scores[i][b]
								idx = i
							}
						}
					}
				case ModeGiven:
					// Unforced cells keep index 0; see ModeGiven doc.
					idx = forced[b]
				}
				cell[b] = scores[idx][b]
				choice[b] = idx
			}
		}
	}
	return cells, back, nil
}
