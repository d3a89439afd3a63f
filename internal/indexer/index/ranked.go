package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Params are the Okapi BM25 constants.
type Params struct {
	K1 float64 `json:"k1"`
	B  float64 `json:"b"`
}

func DefaultParams() Params {
	return Params{K1: DefaultK1, B: DefaultB}
}

// RankedIndex is the term-document weight model. Column j of both matrices
// belongs to Terms()[j]; row i belongs to DocIDs()[i].
type RankedIndex struct {
	vocab     map[string]int
	terms     []string
	idf       []float64
	tfidf     *Matrix
	bm25      *Matrix
	docIDs    []int
	docLens   []int
	avgDocLen float64
	params    Params
}

// SmoothedIDF is ln((1+N)/(1+df)) + 1. It is shared by the TF-IDF and BM25
// weights.
func SmoothedIDF(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

// BM25Weight is the saturating, length-normalized weight of a term with raw
// frequency tf in a document of length docLen.
func BM25Weight(tf, idf, docLen, avgDocLen float64, p Params) float64 {
	if tf <= 0 {
		return 0
	}
	norm := 1 - p.B
	if avgDocLen > 0 {
		norm += p.B * (docLen / avgDocLen)
	}
	// Dividing norm by tf keeps the weight non-decreasing in tf under rounding.
	return idf * (p.K1 + 1) / (1 + p.K1*norm/tf)
}

// BuildRanked computes vocabulary, raw counts, IDF, TF-IDF and BM25 in one
// pass family over the tokens. Raw term frequencies come straight from the
// tokens.
func BuildRanked(store *corpus.Store, params Params, opts ...Option) (*RankedIndex, error) {
	if err := checkStore(store); err != nil {
		return nil, err
	}
	if params.K1 < 0 || params.B < 0 || params.B > 1 {
		return nil, fmt.Errorf("bm25 params k1=%v b=%v: %w", params.K1, params.B, apperrors.ErrInvalidInput)
	}
	o := resolveOptions(opts)
	docs := store.Docs()

	// Pass 1: per-document raw counts.
	countParts := mapPartitions(docs, o.workers, func(_ int, part []corpus.Document) []map[string]int {
		counts := make([]map[string]int, len(part))
		for i, doc := range part {
			c := make(map[string]int, len(doc.Tokens))
			for _, term := range doc.Tokens {
				c[term]++
			}
			counts[i] = c
		}
		return counts
	})
	counts := make([]map[string]int, 0, len(docs))
	for _, part := range countParts {
		counts = append(counts, part...)
	}

	// Pass 2: vocabulary and document frequency.
	df := make(map[string]int)
	for _, c := range counts {
		for term := range c {
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("building ranked index: corpus has no terms: %w", apperrors.ErrEmptyCorpus)
	}
	terms := sortedKeys(df)
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := len(docs)
	for j, term := range terms {
		vocab[term] = j
		idf[j] = SmoothedIDF(n, df[term])
	}

	// Pass 3: weights, row by row.
	r := &RankedIndex{
		vocab:     vocab,
		terms:     terms,
		idf:       idf,
		tfidf:     NewMatrix(n, len(terms)),
		bm25:      NewMatrix(n, len(terms)),
		docIDs:    store.IDs(),
		docLens:   store.Lengths(),
		avgDocLen: store.AvgLength(),
		params:    params,
	}
	mapPartitions(docs, o.workers, func(offset int, part []corpus.Document) struct{} {
		for i := range part {
			r.fillRow(offset+i, counts[offset+i])
		}
		return struct{}{}
	})
	return r, nil
}

func (r *RankedIndex) fillRow(row int, counts map[string]int) {
	tfidfRow := r.tfidf.Row(row)
	bm25Row := r.bm25.Row(row)
	docLen := float64(r.docLens[row])

	// Accumulate in column order so the norm is bit-for-bit reproducible.
	cols := make([]int, 0, len(counts))
	for term := range counts {
		cols = append(cols, r.vocab[term])
	}
	sort.Ints(cols)
	var sumSq float64
	for _, j := range cols {
		tf := float64(counts[r.terms[j]])
		w := tf * r.idf[j]
		tfidfRow[j] = w
		sumSq += w * w
		bm25Row[j] = BM25Weight(tf, r.idf[j], docLen, r.avgDocLen, r.params)
	}
	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for _, j := range cols {
			tfidfRow[j] /= norm
		}
	}
}

// RankedParts is the persisted form of a RankedIndex.
type RankedParts struct {
	Terms   []string
	IDF     []float64
	TFIDF   *Matrix
	BM25    *Matrix
	DocIDs  []int
	DocLens []int
	Params  Params
}

// NewRankedIndex reassembles a persisted index and validates its shape.
func NewRankedIndex(parts RankedParts) (*RankedIndex, error) {
	vocab := make(map[string]int, len(parts.Terms))
	for j, term := range parts.Terms {
		if _, dup := vocab[term]; dup {
			return nil, fmt.Errorf("duplicate vocabulary term %q: %w", term, apperrors.ErrCorruptIndex)
		}
		vocab[term] = j
	}
	var total int
	for _, l := range parts.DocLens {
		total += l
	}
	var avg float64
	if len(parts.DocLens) > 0 {
		avg = float64(total) / float64(len(parts.DocLens))
	}
	r := &RankedIndex{
		vocab:     vocab,
		terms:     parts.Terms,
		idf:       parts.IDF,
		tfidf:     parts.TFIDF,
		bm25:      parts.BM25,
		docIDs:    parts.DocIDs,
		docLens:   parts.DocLens,
		avgDocLen: avg,
		params:    parts.Params,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parts exposes the index for persistence. Slices are shared.
func (r *RankedIndex) Parts() RankedParts {
	return RankedParts{
		Terms:   r.terms,
		IDF:     r.idf,
		TFIDF:   r.tfidf,
		BM25:    r.bm25,
		DocIDs:  r.docIDs,
		DocLens: r.docLens,
		Params:  r.params,
	}
}

// Validate checks that the matrices, vocabulary and IDF vector agree. A
// failure means scores would be silently wrong.
func (r *RankedIndex) Validate() error {
	rows := len(r.docIDs)
	cols := len(r.terms)
	if len(r.vocab) != cols || len(r.idf) != cols {
		return apperrors.Newf(apperrors.ErrDimensionMismatch, apperrors.ExitBadIndex,
			"vocabulary has %d terms (%d mapped), idf has %d entries", cols, len(r.vocab), len(r.idf))
	}
	if len(r.docLens) != rows {
		return apperrors.Newf(apperrors.ErrDimensionMismatch, apperrors.ExitBadIndex,
			"%d document ids but %d document lengths", rows, len(r.docLens))
	}
	if err := r.tfidf.checkShape("tfidf", rows, cols); err != nil {
		return apperrors.New(apperrors.ErrDimensionMismatch, apperrors.ExitBadIndex, err.Error())
	}
	if err := r.bm25.checkShape("bm25", rows, cols); err != nil {
		return apperrors.New(apperrors.ErrDimensionMismatch, apperrors.ExitBadIndex, err.Error())
	}
	return nil
}

// Column returns the matrix column of term.
func (r *RankedIndex) Column(term string) (int, bool) {
	j, ok := r.vocab[term]
	return j, ok
}

// Vocabulary returns a copy of the term -> column mapping.
func (r *RankedIndex) Vocabulary() map[string]int {
	out := make(map[string]int, len(r.vocab))
	for k, v := range r.vocab {
		out[k] = v
	}
	return out
}

// Terms returns the vocabulary in column order.
func (r *RankedIndex) Terms() []string { return r.terms }

func (r *RankedIndex) IDF() []float64 { return r.idf }

func (r *RankedIndex) TFIDF() *Matrix { return r.tfidf }

func (r *RankedIndex) BM25() *Matrix { return r.bm25 }

// DocIDs returns document ids in row order.
func (r *RankedIndex) DocIDs() []int { return r.docIDs }

func (r *RankedIndex) DocLens() []int { return r.docLens }

func (r *RankedIndex) AvgDocLen() float64 { return r.avgDocLen }

func (r *RankedIndex) Params() Params { return r.params }

func (r *RankedIndex) NumDocs() int { return len(r.docIDs) }
