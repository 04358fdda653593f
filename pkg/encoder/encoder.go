// Package encoder derives the chart engine's numeric input: per-split
// compatibility potentials computed from token embeddings. It also carries
// the vocabulary and an HNSW-backed negative sampler over the embedding
// space.
package encoder

import (
	"fmt"
	"math"
	"math/rand"

	kvector "github.com/kshard/vector"

	"github.com/kittclouds/treeinduce/pkg/chart"
)

// cosineSurface measures child-span compatibility. Same surface the
// sampler's HNSW index searches on, so potentials and negative sampling
// agree on what "close" means.
var cosineSurface = kvector.Cosine()

// Table holds one embedding vector per vocabulary id. Vectors are unit
// length, so dot products are cosines.
type Table struct {
	dim  int
	vecs [][]float32
}

// NewTable creates a randomly initialized table. The same seed always
// produces the same table.
func NewTable(vocabSize, dim int, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))
	vecs := make([][]float32, vocabSize)
	for i := range vecs {
		v := make([]float32, dim)
		var norm float64
		for d := range v {
			x := rng.NormFloat64()
			v[d] = float32(x)
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for d := range v {
				v[d] /= float32(norm)
			}
		}
		vecs[i] = v
	}
	return &Table{dim: dim, vecs: vecs}
}

// Dim returns the embedding dimension.
func (t *Table) Dim() int { return t.dim }

// Len returns the number of vectors.
func (t *Table) Len() int { return len(t.vecs) }

// Vector returns the embedding for an id. The slice aliases the table.
func (t *Table) Vector(id int) ([]float32, error) {
	if id < 0 || id >= len(t.vecs) {
		return nil, fmt.Errorf("encoder: id %d out of range [0,%d)", id, len(t.vecs))
	}
	return t.vecs[id], nil
}

// Encoder turns batches of token-id rows into split-potential pyramids.
type Encoder struct {
	table *Table
}

// New creates an encoder over an embedding table.
func New(table *Table) *Encoder {
	return &Encoder{table: table}
}

// Potentials computes the split-potential pyramid for a batch of equal
// length token-id rows. The potential of split idx at constituent
// (level, pos) is the cosine between the mean embeddings of the two child
// spans: high when the children look like they belong together.
func (e *Encoder) Potentials(batch [][]int) (*chart.Potentials, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("encoder: empty batch")
	}
	length := len(batch[0])
	if length == 0 {
		return nil, fmt.Errorf("encoder: empty sequence")
	}
	for b, row := range batch {
		if len(row) != length {
			return nil, fmt.Errorf("encoder: row %d has length %d, want %d", b, len(row), length)
		}
	}

	dim := e.table.dim
	p := chart.NewPotentials(len(batch), length)

	for b, row := range batch {
		// Prefix sums over the row's embeddings: prefix[i] holds the sum of
		// tokens [0, i).
		prefix := make([][]float32, length+1)
		prefix[0] = make([]float32, dim)
		for i, id := range row {
			vec, err := e.table.Vector(id)
			if err != nil {
				return nil, fmt.Errorf("encoder: row %d: %w", b, err)
			}
			next := make([]float32, dim)
			for d := 0; d < dim; d++ {
				next[d] = prefix[i][d] + vec[d]
			}
			prefix[i+1] = next
		}

		mean := func(pos, size int) []float32 {
			out := make([]float32, dim)
			inv := 1 / float32(size)
			lo, hi := prefix[pos], prefix[pos+size]
			for d := 0; d < dim; d++ {
				out[d] = (hi[d] - lo[d]) * inv
			}
			return out
		}

		for level := 1; level < length; level++ {
			for pos := 0; pos < length-level; pos++ {
				for idx := 0; idx < level; idx++ {
					left := mean(pos, idx+1)
					right := mean(pos+idx+1, level-idx)
					// Cosine distance back to similarity.
					p.Set(level, pos, idx, b, 1-float64(cosineSurface.Distance(left, right)))
				}
			}
		}
	}
	return p, nil
}
