// Package annotate produces external span annotations for token sequences:
// a gazetteer of entity phrases compiled into a single Aho-Corasick
// automaton, scanned over the token stream in O(n), yielding (start, length)
// token spans.
package annotate

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/kittclouds/treeinduce/pkg/span"
)

// stopWords are single tokens never worth a span of their own.
var stopWords = map[string]bool{
	"the": true, "of": true, "and": true, "a": true, "an": true,
	"to": true, "in": true, "on": true, "for": true, "at": true, "by": true,
	"is": true, "it": true, "as": true, "be": true, "was": true,
	"are": true, "with": true, "from": true, "that": true, "this": true,
}

// Entry registers one gazetteer entity with its surface forms.
type Entry struct {
	Label   string
	Aliases []string
}

// Gazetteer scans token sequences for known entity phrases.
type Gazetteer struct {
	ac       ahocorasick.AhoCorasick
	patterns []string
}

// normalize lowercases and collapses a surface form to single-spaced tokens.
func normalize(surface string) string {
	return strings.Join(strings.Fields(strings.ToLower(surface)), " ")
}

// Compile builds a Gazetteer from registered entries. Single-token stop
// words are dropped; duplicate surface forms collapse to one pattern.
func Compile(entries []Entry) *Gazetteer {
	seen := make(map[string]bool)
	var patterns []string
	for _, e := range entries {
		surfaces := append([]string{e.Label}, e.Aliases...)
		for _, surface := range surfaces {
			key := normalize(surface)
			if key == "" || seen[key] {
				continue
			}
			if !strings.Contains(key, " ") && stopWords[key] {
				continue
			}
			seen[key] = true
			patterns = append(patterns, key)
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &Gazetteer{ac: builder.Build(patterns), patterns: patterns}
}

// Len returns the number of compiled patterns.
func (g *Gazetteer) Len() int { return len(g.patterns) }

// Annotate scans a token sequence and returns the token spans of every
// gazetteer mention, leftmost-longest, in left-to-right order. Matches that
// do not align with token boundaries are discarded.
func (g *Gazetteer) Annotate(tokens []string) []span.Span {
	if len(tokens) == 0 {
		return nil
	}

	// Join tokens and remember where each one starts/ends in the joined
	// text so byte matches map back to token indices.
	norm := make([]string, len(tokens))
	for i, t := range tokens {
		norm[i] = strings.ToLower(t)
	}
	joined := strings.Join(norm, " ")

	startAt := make(map[int]int, len(tokens)) // byte offset -> token index
	endAt := make(map[int]int, len(tokens))
	offset := 0
	for i, t := range norm {
		startAt[offset] = i
		offset += len(t)
		endAt[offset] = i
		offset++ // separator
	}

	var spans []span.Span
	for _, m := range g.ac.FindAll(joined) {
		first, ok := startAt[m.Start()]
		if !ok {
			continue
		}
		last, ok := endAt[m.End()]
		if !ok {
			continue
		}
		spans = append(spans, span.Span{Start: first, Length: last - first + 1})
	}
	return spans
}

// AnnotateBatch applies Annotate to every token row.
func (g *Gazetteer) AnnotateBatch(batch [][]string) [][]span.Span {
	out := make([][]span.Span, len(batch))
	for i, tokens := range batch {
		out[i] = g.Annotate(tokens)
	}
	return out
}
