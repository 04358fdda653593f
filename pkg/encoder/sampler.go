package encoder

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	"github.com/hack-pad/hackpadfs"
	kvector "github.com/kshard/vector"
)

// Sampler draws hard negatives for a token: its nearest neighbors in the
// embedding space, which are the most confusable substitutes. Backed by an
// HNSW index with optional persistence.
type Sampler struct {
	index *hnsw.HNSW[vector.VF32]
	fs    hackpadfs.FS
	path  string
	mu    sync.RWMutex
}

// NewSampler builds a sampler over every vector of the table. When fs and
// path are set and a persisted index exists there, it is loaded instead of
// rebuilt.
func NewSampler(table *Table, fs hackpadfs.FS, path string) (*Sampler, error) {
	s := &Sampler{fs: fs, path: path}

	if fs != nil {
		if err := s.load(); err == nil {
			return s, nil
		}
	}

	s.index = hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine()))
	for id := 0; id < table.Len(); id++ {
		vec, err := table.Vector(id)
		if err != nil {
			return nil, err
		}
		s.index.Insert(vector.VF32{Key: uint32(id), Vec: vec})
	}
	return s, nil
}

// Hard returns up to k nearest vocabulary ids to vec, excluding exclude.
func (s *Sampler) Hard(vec []float32, k int, exclude int) ([]int, error) {
	if s.index == nil {
		return nil, fmt.Errorf("sampler: index not initialized")
	}
	if s.index.Size() > 0 {
		dim := len(s.index.Head().Vec)
		if len(vec) != dim {
			return nil, fmt.Errorf("sampler: vector dimension mismatch: expected %d, got %d", dim, len(vec))
		}
	}

	ef := (k + 1) * 2
	if ef < 100 {
		ef = 100
	}
	results := s.index.Search(vector.VF32{Vec: vec}, k+1, ef)

	ids := make([]int, 0, k)
	for _, r := range results {
		if int(r.Key) == exclude {
			continue
		}
		ids = append(ids, int(r.Key))
		if len(ids) == k {
			break
		}
	}
	return ids, nil
}

// Save persists the index to the configured filesystem.
func (s *Sampler) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil || s.fs == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.index.Nodes()); err != nil {
		return fmt.Errorf("sampler: encode index: %w", err)
	}
	if err := hackpadfs.WriteFullFile(s.fs, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("sampler: write index file: %w", err)
	}
	return nil
}

func (s *Sampler) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := hackpadfs.ReadFile(s.fs, s.path)
	if err != nil {
		return err
	}

	var nodes hnsw.Nodes[vector.VF32]
	if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&nodes); err != nil {
		return fmt.Errorf("sampler: decode index: %w", err)
	}
	s.index = hnsw.FromNodes[vector.VF32](vector.SurfaceVF32(kvector.Cosine()), nodes)
	return nil
}
