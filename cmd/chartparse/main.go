// Command chartparse runs the span-scoring pipeline over a stored corpus:
// emit proposed parses as JSON lines, evaluate margin loss and bracketing
// quality over epochs, or annotate examples from a gazetteer.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/kittclouds/treeinduce/internal/logger"
	"github.com/kittclouds/treeinduce/internal/store"
	"github.com/kittclouds/treeinduce/pkg/annotate"
	"github.com/kittclouds/treeinduce/pkg/chart"
	"github.com/kittclouds/treeinduce/pkg/config"
	"github.com/kittclouds/treeinduce/pkg/encoder"
	"github.com/kittclouds/treeinduce/pkg/harness"
	"github.com/kittclouds/treeinduce/pkg/span"
	"github.com/kittclouds/treeinduce/pkg/tree"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config")
		mode       = flag.String("mode", "parse", "parse | eval | annotate")
		gazetteer  = flag.String("gazetteer", "", "phrase file for annotate mode, one per line")
		negatives  = flag.Int("negatives", 0, "log k hard negatives per token in eval mode")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	lg := logger.WithComponent("chartparse")

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	switch *mode {
	case "parse":
		err = runParse(cfg, st)
	case "eval":
		err = runEval(cfg, st, *negatives)
	case "annotate":
		err = runAnnotate(st, *gazetteer)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		lg.Error("run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func openStore(cfg config.StoreConfig) (store.Storer, error) {
	if cfg.DSN == "mem" {
		return store.NewMemStore(), nil
	}
	return store.NewSQLiteStoreWithDSN(cfg.DSN)
}

// buildEncoder interns the whole corpus and sizes the embedding table to it.
func buildEncoder(cfg config.Config, st store.Storer) (*encoder.Encoder, *encoder.Vocab, *encoder.Table, error) {
	vocab := encoder.NewVocab()
	lengths, err := st.Lengths()
	if err != nil {
		return nil, nil, nil, err
	}
	for _, n := range lengths {
		examples, err := st.ListByLength(n)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, ex := range examples {
			vocab.Encode(ex.Tokens)
		}
	}
	table := encoder.NewTable(vocab.Len(), cfg.Encoder.Dim, cfg.Encoder.Seed)
	return encoder.New(table), vocab, table, nil
}

type parsed struct {
	ExampleID string `json:"example_id"`
	Tree      string `json:"tree"`
}

// runParse emits one JSON line per stored example with its proposed
// bracketing. Sequences of length <= 2 have trivial trees and skip scoring.
func runParse(cfg config.Config, st store.Storer) error {
	enc, vocab, _, err := buildEncoder(cfg, st)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	emit := func(id, text string) error {
		return json.NewEncoder(w).Encode(parsed{ExampleID: id, Tree: text})
	}

	lengths, err := st.Lengths()
	if err != nil {
		return err
	}
	for _, n := range lengths {
		examples, err := st.ListByLength(n)
		if err != nil {
			return err
		}
		if n <= 2 {
			for _, ex := range examples {
				text := ex.Tokens[0]
				if n == 2 {
					text = fmt.Sprintf("( %s %s )", ex.Tokens[0], ex.Tokens[1])
				}
				if err := emit(ex.ID, text); err != nil {
					return err
				}
			}
			continue
		}

		for i := 0; i < len(examples); i += cfg.Harness.BatchSize {
			end := i + cfg.Harness.BatchSize
			if end > len(examples) {
				end = len(examples)
			}
			batch := examples[i:end]

			rows := make([][]int, len(batch))
			for j, ex := range batch {
				rows[j] = vocab.Encode(ex.Tokens)
			}
			p, err := enc.Potentials(rows)
			if err != nil {
				return err
			}
			engine, err := chart.New(chart.Config{
				BatchSize: len(batch), Length: n, Mode: chart.ModeBest,
			})
			if err != nil {
				return err
			}
			best, err := engine.BestTree(p)
			if err != nil {
				return err
			}
			for j, ex := range batch {
				t, err := tree.FromSpans(ex.Tokens, span.NewSet(best[j]...))
				if err != nil {
					return fmt.Errorf("example %s: %w", ex.ID, err)
				}
				if err := emit(ex.ID, t.String()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// runEval runs epoch passes and logs loss and bracketing quality.
func runEval(cfg config.Config, st store.Storer, negatives int) error {
	lg := logger.WithComponent("eval")

	enc, vocab, table, err := buildEncoder(cfg, st)
	if err != nil {
		return err
	}

	if negatives > 0 {
		if err := logNegatives(lg, vocab, table, negatives); err != nil {
			return err
		}
	}

	runner := &harness.Runner{
		Store: st,
		Enc:   enc,
		Vocab: vocab,
		Opts: harness.Options{
			BatchSize:    cfg.Harness.BatchSize,
			Margin:       cfg.Harness.Margin,
			FilterLength: cfg.Harness.FilterLength,
			Workers:      cfg.Harness.Workers,
		},
		Log: lg,
	}

	seeds := harness.Seeds(cfg.Harness.MaxEpoch, cfg.Harness.Seed)
	for epoch, seed := range seeds {
		result, err := runner.Epoch(context.Background(), seed)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		lg.Info("epoch done",
			"epoch", epoch,
			"seed", seed,
			"loss", result.Loss,
			"batches", result.Batches,
			"examples", result.Examples,
			"skipped", result.Skipped,
			"precision", result.Precision,
			"recall", result.Recall,
			"f1", result.F1)
	}
	return nil
}

// logNegatives prints each token's hard negatives, a quick look at how the
// embedding space clusters.
func logNegatives(lg *slog.Logger, vocab *encoder.Vocab, table *encoder.Table, k int) error {
	sampler, err := encoder.NewSampler(table, nil, "")
	if err != nil {
		return err
	}
	limit := vocab.Len()
	if limit > 20 {
		limit = 20
	}
	for id := 0; id < limit; id++ {
		vec, err := table.Vector(id)
		if err != nil {
			return err
		}
		ids, err := sampler.Hard(vec, k, id)
		if err != nil {
			return err
		}
		lg.Info("hard negatives", "token", vocab.Word(id), "neighbors", vocab.Decode(ids))
	}
	return nil
}

// runAnnotate fills in annotation spans for stored examples from a
// gazetteer phrase file.
func runAnnotate(st store.Storer, path string) error {
	if path == "" {
		return fmt.Errorf("annotate mode requires -gazetteer")
	}
	lg := logger.WithComponent("annotate")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var entries []annotate.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			entries = append(entries, annotate.Entry{Label: line})
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	gaz := annotate.Compile(entries)
	lg.Info("gazetteer compiled", "patterns", gaz.Len())

	lengths, err := st.Lengths()
	if err != nil {
		return err
	}
	updated := 0
	for _, n := range lengths {
		examples, err := st.ListByLength(n)
		if err != nil {
			return err
		}
		for _, ex := range examples {
			spans := gaz.Annotate(ex.Tokens)
			if len(spans) == 0 {
				continue
			}
			ex.Spans = spans
			if err := st.UpsertExample(ex); err != nil {
				return err
			}
			updated++
		}
	}
	lg.Info("annotation done", "updated", updated)
	return nil
}
