package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// PositionalIndex maps term -> document -> ascending token positions.
// Terms with no occurrences are absent; position lists are never empty.
type PositionalIndex struct {
	postings map[string]PostingList
	docCount int
}

// BuildPositional indexes every token position of every document.
func BuildPositional(store *corpus.Store, opts ...Option) (*PositionalIndex, error) {
	if err := checkStore(store); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	partials := mapPartitions(store.Docs(), o.workers, func(_ int, part []corpus.Document) map[string]PostingList {
		local := make(map[string]PostingList)
		for _, doc := range part {
			termData := make(map[string]*Posting)
			order := make([]string, 0)
			for pos, term := range doc.Tokens {
				p, exists := termData[term]
				if !exists {
					p = &Posting{DocID: doc.ID, Positions: make([]int, 0, 4)}
					termData[term] = p
					order = append(order, term)
				}
				p.Positions = append(p.Positions, pos)
			}
			for _, term := range order {
				local[term] = append(local[term], *termData[term])
			}
		}
		return local
	})

	postings := mergePostings(partials)
	if len(postings) == 0 {
		return nil, fmt.Errorf("building positional index: corpus has no terms: %w", apperrors.ErrEmptyCorpus)
	}
	return &PositionalIndex{postings: postings, docCount: store.Len()}, nil
}

// mergePostings concatenates partial posting lists in two passes: the first
// sizes each term's final list, the second fills it. Lists are then sorted
// by document id.
func mergePostings(partials []map[string]PostingList) map[string]PostingList {
	sizes := make(map[string]int)
	for _, part := range partials {
		for term, pl := range part {
			sizes[term] += len(pl)
		}
	}
	merged := make(map[string]PostingList, len(sizes))
	for term, n := range sizes {
		merged[term] = make(PostingList, 0, n)
	}
	for _, part := range partials {
		for term, pl := range part {
			merged[term] = append(merged[term], pl...)
		}
	}
	for _, pl := range merged {
		sort.Slice(pl, func(i, j int) bool { return pl[i].DocID < pl[j].DocID })
	}
	return merged
}

// NewPositionalIndex rebuilds an index from persisted term entries.
func NewPositionalIndex(entries []TermEntry, docCount int) (*PositionalIndex, error) {
	postings := make(map[string]PostingList, len(entries))
	for _, e := range entries {
		if len(e.Postings) == 0 {
			return nil, fmt.Errorf("term %q has no postings: %w", e.Term, apperrors.ErrCorruptIndex)
		}
		for _, p := range e.Postings {
			if len(p.Positions) == 0 {
				return nil, fmt.Errorf("term %q doc %d has no positions: %w", e.Term, p.DocID, apperrors.ErrCorruptIndex)
			}
		}
		pl := make(PostingList, len(e.Postings))
		copy(pl, e.Postings)
		sort.Slice(pl, func(i, j int) bool { return pl[i].DocID < pl[j].DocID })
		postings[e.Term] = pl
	}
	return &PositionalIndex{postings: postings, docCount: docCount}, nil
}

// Postings returns the posting list of term, nil when absent. The result
// is shared and must not be modified.
func (p *PositionalIndex) Postings(term string) PostingList {
	return p.postings[term]
}

// Positions returns the positions of term in doc, nil when it does not
// occur there.
func (p *PositionalIndex) Positions(term string, doc int) []int {
	pl := p.postings[term]
	i := sort.Search(len(pl), func(i int) bool { return pl[i].DocID >= doc })
	if i < len(pl) && pl[i].DocID == doc {
		return pl[i].Positions
	}
	return nil
}

// Docs returns the ascending ids of documents containing term.
func (p *PositionalIndex) Docs(term string) []int {
	pl := p.postings[term]
	if pl == nil {
		return nil
	}
	return pl.DocIDs()
}

func (p *PositionalIndex) Contains(term string) bool {
	_, ok := p.postings[term]
	return ok
}

// Terms returns the vocabulary in lexicographic order.
func (p *PositionalIndex) Terms() []string {
	return sortedKeys(p.postings)
}

func (p *PositionalIndex) Len() int { return len(p.postings) }

func (p *PositionalIndex) DocCount() int { return p.docCount }

// Snapshot returns all terms and postings sorted by term, ready to be
// written to a segment.
func (p *PositionalIndex) Snapshot() []TermEntry {
	terms := p.Terms()
	entries := make([]TermEntry, 0, len(terms))
	for _, term := range terms {
		entries = append(entries, TermEntry{Term: term, Postings: p.postings[term]})
	}
	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
