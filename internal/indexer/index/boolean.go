package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// BooleanIndex maps each term to the ascending, duplicate-free ids of the
// documents that contain it.
type BooleanIndex struct {
	postings map[string][]int
	docCount int
}

// BuildBoolean adds every document id to the set of each distinct term it
// contains.
func BuildBoolean(store *corpus.Store, opts ...Option) (*BooleanIndex, error) {
	if err := checkStore(store); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	partials := mapPartitions(store.Docs(), o.workers, func(_ int, part []corpus.Document) map[string][]int {
		local := make(map[string][]int)
		for _, doc := range part {
			seen := make(map[string]struct{}, len(doc.Tokens))
			for _, term := range doc.Tokens {
				if _, dup := seen[term]; dup {
					continue
				}
				seen[term] = struct{}{}
				local[term] = append(local[term], doc.ID)
			}
		}
		return local
	})

	sizes := make(map[string]int)
	for _, part := range partials {
		for term, ids := range part {
			sizes[term] += len(ids)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("building boolean index: corpus has no terms: %w", apperrors.ErrEmptyCorpus)
	}
	postings := make(map[string][]int, len(sizes))
	for term, n := range sizes {
		postings[term] = make([]int, 0, n)
	}
	for _, part := range partials {
		for term, ids := range part {
			postings[term] = append(postings[term], ids...)
		}
	}
	for _, ids := range postings {
		sort.Ints(ids)
	}
	return &BooleanIndex{postings: postings, docCount: store.Len()}, nil
}

// BooleanFromPositional derives the Boolean index from positional
// postings; both carry the same document sets.
func BooleanFromPositional(p *PositionalIndex) *BooleanIndex {
	postings := make(map[string][]int, len(p.postings))
	for term, pl := range p.postings {
		postings[term] = pl.DocIDs()
	}
	return &BooleanIndex{postings: postings, docCount: p.docCount}
}

// Postings returns a copy of the document set for term, nil when absent.
func (b *BooleanIndex) Postings(term string) []int {
	ids, ok := b.postings[term]
	if !ok {
		return nil
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

func (b *BooleanIndex) Contains(term string) bool {
	_, ok := b.postings[term]
	return ok
}

// Terms returns the vocabulary in lexicographic order.
func (b *BooleanIndex) Terms() []string {
	return sortedKeys(b.postings)
}

func (b *BooleanIndex) Len() int { return len(b.postings) }

func (b *BooleanIndex) DocCount() int { return b.docCount }
