// Package index implements the TF-IDF keyword index used for the sparse half
// of hybrid search.
//
// An Index is immutable after construction. Corpus updates are handled one
// level up by building a fresh Index and swapping it in atomically, so readers
// never observe a half-built vocabulary.
package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// maxVocabulary caps the number of distinct terms kept in the index.
// Terms are selected by corpus frequency, most frequent first.
const maxVocabulary = 10000

// DocScore pairs a corpus position with its cosine similarity to a query.
type DocScore struct {
	Pos   int
	Score float64
}

// Index is a TF-IDF index over a fixed corpus of texts. Rows are
// L2-normalized at build time so query scoring reduces to a sparse dot
// product. The zero value (and a nil *Index) matches nothing.
type Index struct {
	vocab map[string]int // term -> column
	idf   []float64      // column -> inverse document frequency
	rows  []sparseVec    // document position -> normalized TF-IDF row
}

// sparseVec stores the non-zero columns of one document row.
type sparseVec struct {
	cols []int
	vals []float64
}

// New builds an index over the given texts. The position of each text is its
// corpus position, reported back in DocScore.Pos. An empty corpus yields an
// index that matches nothing.
func New(texts []string) *Index {
	idx := &Index{vocab: make(map[string]int)}
	if len(texts) == 0 {
		return idx
	}

	termCounts := make([]map[string]int, len(texts))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range Tokenize(text) {
			counts[term]++
		}
		termCounts[i] = counts
		for term, n := range counts {
			corpusFreq[term] += n
			docFreq[term]++
		}
	}

	idx.vocab = selectVocabulary(corpusFreq)

	// Smooth IDF keeps weights finite for terms present in every document.
	n := float64(len(texts))
	idx.idf = make([]float64, len(idx.vocab))
	for term, col := range idx.vocab {
		idx.idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	idx.rows = make([]sparseVec, len(texts))
	for i, counts := range termCounts {
		idx.rows[i] = idx.buildRow(counts)
	}

	return idx
}

// Score returns up to topK corpus positions ranked by cosine similarity to
// the query, highest first. Zero-scoring documents are omitted. A nil index
// or blank query returns no results.
func (idx *Index) Score(query string, topK int) []DocScore {
	if idx == nil || len(idx.rows) == 0 || topK <= 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, term := range Tokenize(query) {
		counts[term]++
	}
	q := idx.buildRow(counts)
	if len(q.cols) == 0 {
		return nil
	}

	scored := make([]DocScore, 0, len(idx.rows))
	for pos, row := range idx.rows {
		if s := dotSparse(q, row); s > 0 {
			scored = append(scored, DocScore{Pos: pos, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Size returns the number of indexed documents.
func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.rows)
}

// VocabSize returns the number of distinct terms in the vocabulary.
func (idx *Index) VocabSize() int {
	if idx == nil {
		return 0
	}
	return len(idx.vocab)
}

// buildRow converts term counts into an L2-normalized sparse TF-IDF vector.
// Terms outside the vocabulary are dropped.
func (idx *Index) buildRow(counts map[string]int) sparseVec {
	type entry struct {
		col int
		val float64
	}

	entries := make([]entry, 0, len(counts))
	var sumSquares float64
	for term, count := range counts {
		col, ok := idx.vocab[term]
		if !ok {
			continue
		}
		v := float64(count) * idx.idf[col]
		entries = append(entries, entry{col: col, val: v})
		sumSquares += v * v
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].col < entries[j].col })

	inv := 1.0
	if sumSquares > 0 {
		inv = 1 / math.Sqrt(sumSquares)
	}

	cols := make([]int, len(entries))
	vals := make([]float64, len(entries))
	for i, e := range entries {
		cols[i] = e.col
		vals[i] = e.val * inv
	}

	return sparseVec{cols: cols, vals: vals}
}

// selectVocabulary keeps the maxVocabulary most frequent terms. Ties break
// alphabetically so builds are deterministic.
func selectVocabulary(corpusFreq map[string]int) map[string]int {
	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if corpusFreq[terms[i]] != corpusFreq[terms[j]] {
			return corpusFreq[terms[i]] > corpusFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}

	vocab := make(map[string]int, len(terms))
	for col, term := range terms {
		vocab[term] = col
	}
	return vocab
}

// dotSparse computes the dot product of two sorted sparse vectors.
func dotSparse(a, b sparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.cols) && j < len(b.cols) {
		switch {
		case a.cols[i] < b.cols[j]:
			i++
		case a.cols[i] > b.cols[j]:
			j++
		default:
			sum += a.vals[i] * b.vals[j]
			i++
			j++
		}
	}
	return sum
}

// Tokenize lowercases text, splits on non-alphanumeric runes, and emits
// unigrams plus adjacent-pair bigrams ("hello_world"). Bigrams let short
// phrases like "error handling" rank above documents that merely contain
// both words far apart.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(words)*2)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+"_"+words[i+1])
	}
	return terms
}
