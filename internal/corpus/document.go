// Package corpus holds the frozen tokenized document store every index is
// built from, plus loaders that turn raw text collections into one.
package corpus

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// Document is one normalized document. ID is stable and non-negative.
type Document struct {
	ID     int      `json:"id"`
	Tokens []string `json:"tokens"`
}

// Store is an immutable, ordered collection of documents. The order passed
// to NewStore is the enumeration order used for ranked-matrix rows.
type Store struct {
	docs     []Document
	rows     map[int]int
	totalLen int
}

// NewStore freezes docs into a Store. It rejects empty input, negative ids
// and duplicate ids. Token slices are copied.
func NewStore(docs []Document) (*Store, error) {
	if len(docs) == 0 {
		return nil, apperrors.ErrEmptyCorpus
	}
	s := &Store{
		docs: make([]Document, len(docs)),
		rows: make(map[int]int, len(docs)),
	}
	for i, d := range docs {
		if d.ID < 0 {
			return nil, fmt.Errorf("document at position %d has negative id %d: %w", i, d.ID, apperrors.ErrInvalidInput)
		}
		if prev, dup := s.rows[d.ID]; dup {
			return nil, fmt.Errorf("duplicate document id %d at positions %d and %d: %w", d.ID, prev, i, apperrors.ErrInvalidInput)
		}
		tokens := make([]string, len(d.Tokens))
		copy(tokens, d.Tokens)
		s.docs[i] = Document{ID: d.ID, Tokens: tokens}
		s.rows[d.ID] = i
		s.totalLen += len(tokens)
	}
	return s, nil
}

// FromTokens builds a Store whose ids are the slice positions.
func FromTokens(tokens [][]string) (*Store, error) {
	docs := make([]Document, len(tokens))
	for i, t := range tokens {
		docs[i] = Document{ID: i, Tokens: t}
	}
	return NewStore(docs)
}

func (s *Store) Len() int { return len(s.docs) }

// Docs returns the documents in enumeration order. Callers must not modify
// the returned slice or its token slices.
func (s *Store) Docs() []Document { return s.docs }

// Doc looks a document up by id.
func (s *Store) Doc(id int) (Document, bool) {
	row, ok := s.rows[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[row], true
}

// Row returns the enumeration position of id.
func (s *Store) Row(id int) (int, bool) {
	row, ok := s.rows[id]
	return row, ok
}

// IDs returns document ids in enumeration order.
func (s *Store) IDs() []int {
	ids := make([]int, len(s.docs))
	for i, d := range s.docs {
		ids[i] = d.ID
	}
	return ids
}

// Lengths returns token counts in enumeration order.
func (s *Store) Lengths() []int {
	lens := make([]int, len(s.docs))
	for i, d := range s.docs {
		lens[i] = len(d.Tokens)
	}
	return lens
}

func (s *Store) TotalTokens() int { return s.totalLen }

// AvgLength is the mean token count across all documents.
func (s *Store) AvgLength() float64 {
	return float64(s.totalLen) / float64(len(s.docs))
}

// Snippet returns up to n leading tokens of a document joined by spaces.
func (s *Store) Snippet(id int, n int) string {
	d, ok := s.Doc(id)
	if !ok {
		return ""
	}
	tokens := d.Tokens
	if n >= 0 && len(tokens) > n {
		tokens = tokens[:n]
	}
	return strings.Join(tokens, " ")
}
