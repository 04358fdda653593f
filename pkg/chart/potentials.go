package chart

import "fmt"

// Potentials holds the per-split scalar scores produced by the encoder, one
// batch vector per possible split of every constituent. The constituent at
// (level, pos) spans (pos, level+1) and has level possible splits.
type Potentials struct {
	batchSize int
	length    int
	data      [][][][]float64 // [level][pos][idx][batch]
}

// NewPotentials allocates a zeroed potential pyramid for a batch of
// sequences of the given length.
func NewPotentials(batchSize, length int) *Potentials {
	data := make([][][][]float64, length)
	for level := 0; level < length; level++ {
		positions := length - level
		data[level] = make([][][]float64, positions)
		for pos := 0; pos < positions; pos++ {
			splits := make([][]float64, level)
			for idx := 0; idx < level; idx++ {
				splits[idx] = make([]float64, batchSize)
			}
			data[level][pos] = splits
		}
	}
	return &Potentials{batchSize: batchSize, length: length, data: data}
}

// BatchSize returns the batch dimension.
func (p *Potentials) BatchSize() int { return p.batchSize }

// Length returns the sequence length the pyramid was sized for.
func (p *Potentials) Length() int { return p.length }

// At returns the batch vector for split idx of constituent (level, pos).
// The returned slice aliases the pyramid.
func (p *Potentials) At(level, pos, idx int) []float64 {
	return p.data[level][pos][idx]
}

// Set assigns the potential for one split of one batch element.
func (p *Potentials) Set(level, pos, idx, batch int, v float64) {
	p.data[level][pos][idx][batch] = v
}

// validate checks the pyramid shape against the declared dimensions, the
// internal invariant every fill relies on when indexing without bounds
// checks of its own.
func (p *Potentials) validate() error {
	if len(p.data) != p.length {
		return fmt.Errorf("potentials: %d levels, want %d", len(p.data), p.length)
	}
	for level := 0; level < p.length; level++ {
		if len(p.data[level]) != p.length-level {
			return fmt.Errorf("potentials: level %d has %d positions, want %d",
				level, len(p.data[level]), p.length-level)
		}
		for pos, splits := range p.data[level] {
			if len(splits) != level {
				return fmt.Errorf("potentials: cell (%d,%d) has %d splits, want %d",
					level, pos, len(splits), level)
			}
			for idx, vec := range splits {
				if len(vec) != p.batchSize {
					return fmt.Errorf("potentials: cell (%d,%d) split %d has batch %d, want %d",
						level, pos, idx, len(vec), p.batchSize)
				}
			}
		}
	}
	return nil
}
