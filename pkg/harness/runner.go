package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/treeinduce/internal/store"
	"github.com/kittclouds/treeinduce/pkg/chart"
	"github.com/kittclouds/treeinduce/pkg/encoder"
	"github.com/kittclouds/treeinduce/pkg/metrics"
	"github.com/kittclouds/treeinduce/pkg/span"
	"github.com/kittclouds/treeinduce/pkg/tree"
)

// Seeds derives one deterministic seed per epoch from a master seed.
func Seeds(n int, seed int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(rng.Intn(1 << 16))
	}
	return out
}

// Options configures a Runner.
type Options struct {
	BatchSize    int
	Margin       float64
	FilterLength int // skip sequences longer than this; 0 = no limit
	Workers      int // parallel batches; 0 or 1 = sequential
}

// EpochResult aggregates one pass over the corpus.
type EpochResult struct {
	Loss      float64
	Batches   int
	Examples  int
	Skipped   int
	Precision float64
	Recall    float64
	F1        float64
}

// Runner iterates the stored corpus in equal-length batches, scores each
// batch and accumulates the margin loss and bracketing precision/recall of
// the proposed trees against the gold trees.
type Runner struct {
	Store store.Storer
	Enc   *encoder.Encoder
	Vocab *encoder.Vocab
	Opts  Options
	Log   *slog.Logger
}

// Epoch runs one shuffled pass. Sequences of length <= 2 have only one
// bracketing and are skipped, as are sequences over the filter length.
func (r *Runner) Epoch(ctx context.Context, seed int64) (EpochResult, error) {
	lengths, err := r.Store.Lengths()
	if err != nil {
		return EpochResult{}, fmt.Errorf("harness: list lengths: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	var batches [][]*store.Example
	result := EpochResult{}
	for _, n := range lengths {
		if n <= 2 || (r.Opts.FilterLength > 0 && n > r.Opts.FilterLength) {
			examples, err := r.Store.ListByLength(n)
			if err != nil {
				return EpochResult{}, err
			}
			result.Skipped += len(examples)
			continue
		}
		examples, err := r.Store.ListByLength(n)
		if err != nil {
			return EpochResult{}, err
		}
		rng.Shuffle(len(examples), func(i, j int) {
			examples[i], examples[j] = examples[j], examples[i]
		})
		for i := 0; i < len(examples); i += r.Opts.BatchSize {
			end := i + r.Opts.BatchSize
			if end > len(examples) {
				end = len(examples)
			}
			batches = append(batches, examples[i:end])
		}
	}

	var mu sync.Mutex
	acc := &metrics.Accumulator{}

	g, ctx := errgroup.WithContext(ctx)
	if r.Opts.Workers > 1 {
		g.SetLimit(r.Opts.Workers)
	} else {
		g.SetLimit(1)
	}

	for _, batch := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loss, err := r.runBatch(batch, acc, &mu)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Loss += loss
			result.Batches++
			result.Examples += len(batch)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EpochResult{}, err
	}

	if result.Batches > 0 {
		result.Loss /= float64(result.Batches)
	}
	result.Precision = acc.Precision()
	result.Recall = acc.Recall()
	result.F1 = acc.F1()
	return result, nil
}

// runBatch scores one equal-length batch and folds its bracketing counts
// into the accumulator.
func (r *Runner) runBatch(batch []*store.Example, acc *metrics.Accumulator, mu *sync.Mutex) (float64, error) {
	rows := make([][]int, len(batch))
	targets := make([][]span.Span, len(batch))
	for i, ex := range batch {
		rows[i] = r.Vocab.Encode(ex.Tokens)
		targets[i] = ex.Spans
	}

	p, err := r.Enc.Potentials(rows)
	if err != nil {
		return 0, fmt.Errorf("harness: potentials: %w", err)
	}

	best, err := chart.New(chart.Config{
		BatchSize: p.BatchSize(),
		Length:    p.Length(),
		Mode:      chart.ModeBest,
	})
	if err != nil {
		return 0, err
	}
	maxSpans, err := best.BestTree(p)
	if err != nil {
		return 0, fmt.Errorf("harness: best tree: %w", err)
	}

	// Bracketing quality against stored gold trees.
	for i, ex := range batch {
		if ex.Tree == "" {
			continue
		}
		gold, err := tree.Parse(ex.Tree)
		if err != nil {
			return 0, fmt.Errorf("harness: example %s: %w", ex.ID, err)
		}
		mu.Lock()
		acc.Observe(gold.SpanSet(), span.NewSet(maxSpans[i]...))
		mu.Unlock()
	}

	// Margin loss over the annotated subset.
	annotated := Annotated(targets)
	if len(annotated) == 0 {
		return 0, nil
	}
	subRows := make([][]int, len(annotated))
	subTargets := make([][]span.Span, len(annotated))
	subMax := make([][]span.Span, len(annotated))
	for i, b := range annotated {
		subRows[i] = rows[b]
		subTargets[i] = targets[b]
		subMax[i] = maxSpans[b]
	}
	subP := p
	if len(annotated) != len(batch) {
		if subP, err = r.Enc.Potentials(subRows); err != nil {
			return 0, fmt.Errorf("harness: potentials: %w", err)
		}
	}

	loss := Loss{Margin: r.Opts.Margin}
	_, batchLoss, err := loss.WholeTree(subP, subTargets, subMax)
	if err != nil {
		return 0, fmt.Errorf("harness: margin: %w", err)
	}
	return batchLoss, nil
}
