package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/treeinduce/internal/store"
	"github.com/kittclouds/treeinduce/pkg/span"
)

// storeFactories runs every suite against both backends.
var storeFactories = map[string]func(t *testing.T) store.Storer{
	"mem": func(t *testing.T) store.Storer {
		return store.NewMemStore()
	},
	"sqlite": func(t *testing.T) store.Storer {
		s, err := store.NewSQLiteStore()
		require.NoError(t, err)
		return s
	},
}

func example(id string, tokens ...string) *store.Example {
	return &store.Example{
		ID:        id,
		Tokens:    tokens,
		CreatedAt: 1700000000,
	}
}

func TestUpsertAndGet(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			ex := example("ex-1", "the", "quick", "fox")
			ex.Tree = "( the ( quick fox ) )"
			ex.Spans = []span.Span{{Start: 1, Length: 2}}
			require.NoError(t, s.UpsertExample(ex))

			got, err := s.GetExample("ex-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, ex.Tokens, got.Tokens)
			assert.Equal(t, ex.Tree, got.Tree)
			assert.Equal(t, ex.Spans, got.Spans)
			assert.Equal(t, 3, got.Length)
		})
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			got, err := s.GetExample("nope")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestUpsertOverwrites(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.UpsertExample(example("ex-1", "a", "b")))
			require.NoError(t, s.UpsertExample(example("ex-1", "a", "b", "c")))

			got, err := s.GetExample("ex-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, []string{"a", "b", "c"}, got.Tokens)
			assert.Equal(t, 3, got.Length)

			count, err := s.CountExamples()
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestDeleteExample(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.UpsertExample(example("ex-1", "a", "b")))
			require.NoError(t, s.DeleteExample("ex-1"))
			require.NoError(t, s.DeleteExample("ex-1")) // idempotent

			got, err := s.GetExample("ex-1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestListByLengthAndLengths(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.UpsertExample(example("b", "x", "y", "z")))
			require.NoError(t, s.UpsertExample(example("a", "p", "q", "r")))
			require.NoError(t, s.UpsertExample(example("c", "m", "n")))

			threes, err := s.ListByLength(3)
			require.NoError(t, err)
			require.Len(t, threes, 2)
			assert.Equal(t, "a", threes[0].ID)
			assert.Equal(t, "b", threes[1].ID)

			none, err := s.ListByLength(7)
			require.NoError(t, err)
			assert.Empty(t, none)

			lengths, err := s.Lengths()
			require.NoError(t, err)
			assert.Equal(t, []int{2, 3}, lengths)
		})
	}
}

func TestMemStoreCopiesOnWrite(t *testing.T) {
	s := store.NewMemStore()
	defer s.Close()

	ex := example("ex-1", "a", "b")
	require.NoError(t, s.UpsertExample(ex))
	ex.Tokens[0] = "mutated"

	got, err := s.GetExample("ex-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Tokens[0])
}
