package ranker

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
)

// Model selects which weight matrix a query is scored against.
type Model string

const (
	ModelBM25  Model = "bm25"
	ModelTFIDF Model = "tfidf"
)

// ParseModel maps a config or flag value to a Model.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case ModelBM25, "":
		return ModelBM25, nil
	case ModelTFIDF:
		return ModelTFIDF, nil
	}
	return "", fmt.Errorf("unknown ranking model %q", s)
}

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Scores sums, for every query term in the vocabulary, that term's weight
// column into one score per document row. Out-of-vocabulary terms add
// nothing; a repeated term adds its column once per occurrence. matched
// counts the in-vocabulary query terms.
func Scores(idx *index.RankedIndex, terms []string, model Model) (scores []float64, matched int) {
	weights := idx.BM25()
	if model == ModelTFIDF {
		weights = idx.TFIDF()
	}
	scores = make([]float64, idx.NumDocs())
	for _, term := range terms {
		j, ok := idx.Column(term)
		if !ok {
			continue
		}
		weights.AddColumnTo(j, scores)
		matched++
	}
	return scores, matched
}

// Rank scores terms and returns at most limit documents with a strictly
// positive score, by descending score then ascending document id. It fails
// only when the index dimensions are inconsistent.
func Rank(idx *index.RankedIndex, terms []string, model Model, limit int) ([]ScoredDoc, error) {
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	if limit <= 0 || len(terms) == 0 {
		return []ScoredDoc{}, nil
	}
	scores, matched := Scores(idx, terms, model)
	if matched == 0 {
		return []ScoredDoc{}, nil
	}
	docIDs := idx.DocIDs()
	top := newTopK(limit)
	for row, score := range scores {
		if score > 0 {
			top.offer(ScoredDoc{DocID: docIDs[row], Score: score})
		}
	}
	return top.sorted(), nil
}
