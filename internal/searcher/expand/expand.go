// Package expand implements pseudo-relevance feedback: it treats the best
// TF-IDF matches of a query as relevant and suggests the terms that weigh
// most across them.
package expand

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
)

// Options bounds the feedback set and the number of suggestions.
type Options struct {
	TopDocs  int
	AddTerms int
}

func DefaultOptions() Options {
	return Options{TopDocs: 5, AddTerms: 5}
}

// Term is a suggested expansion term with its centroid weight.
type Term struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Expand scores every document by cosine similarity between its normalized
// TF-IDF row and the query's TF-IDF vector, averages the rows of the
// TopDocs best documents, and returns the AddTerms heaviest centroid terms
// that are not already in the query. Ties go to the lexicographically
// smaller term. A query with no in-vocabulary term yields no suggestions.
func Expand(idx *index.RankedIndex, queryTerms []string, opts Options) ([]Term, error) {
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("expanding query: %w", err)
	}
	if opts.TopDocs <= 0 || opts.AddTerms <= 0 {
		return []Term{}, nil
	}

	query := queryVector(idx, queryTerms)
	if len(query) == 0 {
		return []Term{}, nil
	}

	tfidf := idx.TFIDF()
	type hit struct {
		row int
		sim float64
	}
	hits := make([]hit, 0, tfidf.Rows)
	for row := 0; row < tfidf.Rows; row++ {
		var sim float64
		for _, q := range query {
			sim += q.weight * tfidf.At(row, q.col)
		}
		if sim > 0 {
			hits = append(hits, hit{row: row, sim: sim})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].row < hits[j].row
	})
	if len(hits) > opts.TopDocs {
		hits = hits[:opts.TopDocs]
	}

	centroid := make([]float64, tfidf.Cols)
	for _, h := range hits {
		for col, w := range tfidf.Row(h.row) {
			centroid[col] += w
		}
	}

	inQuery := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		inQuery[t] = struct{}{}
	}
	terms := idx.Terms()
	candidates := make([]Term, 0, len(centroid))
	for col, sum := range centroid {
		if sum <= 0 {
			continue
		}
		if _, ok := inQuery[terms[col]]; ok {
			continue
		}
		candidates = append(candidates, Term{Term: terms[col], Weight: sum / float64(len(hits))})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Weight != candidates[j].Weight {
			return candidates[i].Weight > candidates[j].Weight
		}
		return candidates[i].Term < candidates[j].Term
	})
	if len(candidates) > opts.AddTerms {
		candidates = candidates[:opts.AddTerms]
	}
	return candidates, nil
}

type component struct {
	col    int
	weight float64
}

// queryVector weights each in-vocabulary query term by count * idf and
// L2-normalizes. Components are ordered by column.
func queryVector(idx *index.RankedIndex, terms []string) []component {
	idf := idx.IDF()
	counts := make(map[int]int)
	for _, t := range terms {
		if col, ok := idx.Column(t); ok {
			counts[col]++
		}
	}
	vec := make([]component, 0, len(counts))
	var norm float64
	for col, n := range counts {
		w := float64(n) * idf[col]
		vec = append(vec, component{col: col, weight: w})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].col < vec[j].col })
	for _, c := range vec {
		norm += c.weight * c.weight
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].weight /= norm
	}
	return vec
}

// Query appends the suggested terms to the original query text.
func Query(original string, suggestions []Term) string {
	parts := make([]string, 0, len(suggestions)+1)
	if s := strings.TrimSpace(original); s != "" {
		parts = append(parts, s)
	}
	for _, t := range suggestions {
		parts = append(parts, t.Term)
	}
	return strings.Join(parts, " ")
}
