package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "unigrams and bigrams",
			input: "Hello World",
			want:  []string{"hello", "world", "hello_world"},
		},
		{
			name:  "punctuation splits",
			input: "error-handling, done.",
			want:  []string{"error", "handling", "done", "error_handling", "handling_done"},
		},
		{
			name:  "single word has no bigram",
			input: "search",
			want:  []string{"search"},
		},
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestIndex_RanksRelevantDocumentFirst(t *testing.T) {
	idx := New([]string{
		"the cat sat on the mat",
		"dogs chase cats in the yard",
		"quantum computing uses qubits",
	})

	results := idx.Score("cat on a mat", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].Pos)

	for _, r := range results {
		assert.NotEqual(t, 2, r.Pos, "unrelated document must not match")
	}
}

func TestIndex_BigramBoostsPhraseMatch(t *testing.T) {
	idx := New([]string{
		"error handling in distributed systems",
		"handling requests is prone to error when systems are loaded",
	})

	results := idx.Score("error handling", 10)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].Pos, "exact phrase should outrank split words")
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndex_ScoresAreCosineBounded(t *testing.T) {
	idx := New([]string{
		"alpha beta gamma",
		"alpha alpha alpha",
		"delta epsilon",
	})

	results := idx.Score("alpha beta gamma", 10)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0+1e-9)
	}
	// A document identical to the query scores 1
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 0, results[0].Pos)
}

func TestIndex_TopKTruncation(t *testing.T) {
	idx := New([]string{
		"go is fun",
		"go is fast",
		"go is simple",
		"go is typed",
	})

	results := idx.Score("go", 2)
	assert.Len(t, results, 2)
}

func TestIndex_NilAndEmpty(t *testing.T) {
	var nilIdx *Index
	assert.Nil(t, nilIdx.Score("anything", 5))
	assert.Zero(t, nilIdx.Size())
	assert.Zero(t, nilIdx.VocabSize())

	empty := New(nil)
	assert.Nil(t, empty.Score("anything", 5))
	assert.Zero(t, empty.Size())
}

func TestIndex_BlankQuery(t *testing.T) {
	idx := New([]string{"some document text"})

	assert.Nil(t, idx.Score("", 5))
	assert.Nil(t, idx.Score("   ...   ", 5))
	assert.Nil(t, idx.Score("zzz unknown terms", 5))
}

func TestIndex_ZeroTopK(t *testing.T) {
	idx := New([]string{"some document text"})
	assert.Nil(t, idx.Score("document", 0))
	assert.Nil(t, idx.Score("document", -1))
}

func TestIndex_Deterministic(t *testing.T) {
	corpus := []string{
		"the quick brown fox",
		"jumps over the lazy dog",
		"the fox and the dog",
	}

	a := New(corpus).Score("fox dog", 10)
	b := New(corpus).Score("fox dog", 10)
	assert.Equal(t, a, b)
}

func TestIndex_SizeAndVocab(t *testing.T) {
	idx := New([]string{"one two", "three"})
	assert.Equal(t, 2, idx.Size())
	// one, two, three, one_two
	assert.Equal(t, 4, idx.VocabSize())
}
