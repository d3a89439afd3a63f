package executor

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/ranker"
)

// BooleanSearch folds the query's terms left to right with AND/OR and
// returns the matching document ids in ascending order.
func BooleanSearch(query string, idx *index.BooleanIndex) []int {
	plan := parser.ParseBoolean(query)
	if plan.Empty() {
		return []int{}
	}
	result := idx.Postings(plan.Clauses[0].Term)
	for _, clause := range plan.Clauses[1:] {
		docs := idx.Postings(clause.Term)
		switch clause.Op {
		case parser.OpOR:
			result = union(result, docs)
		default:
			result = intersect(result, docs)
		}
	}
	if result == nil {
		return []int{}
	}
	return result
}

// PhraseSearch returns documents where terms occur at consecutive
// positions. Zero terms, or any term missing from the index, match nothing.
func PhraseSearch(terms []string, idx *index.PositionalIndex) []int {
	result := []int{}
	if len(terms) == 0 {
		return result
	}
	for _, term := range terms[1:] {
		if !idx.Contains(term) {
			return result
		}
	}

	positions := make([][]int, len(terms))
	for _, first := range idx.Postings(terms[0]) {
		positions[0] = first.Positions
		present := true
		for i := 1; i < len(terms); i++ {
			positions[i] = idx.Positions(terms[i], first.DocID)
			if positions[i] == nil {
				present = false
				break
			}
		}
		if present && phraseAt(positions) {
			result = append(result, first.DocID)
		}
	}
	return result
}

// phraseAt reports whether some start p in positions[0] has p+i in
// positions[i] for every i.
func phraseAt(positions [][]int) bool {
	for _, p := range positions[0] {
		match := true
		for i := 1; i < len(positions); i++ {
			if !containsSorted(positions[i], p+i) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ProximitySearch evaluates "t1 /k t2": documents containing both terms
// with some pair of occurrences at most k positions apart, in either order.
// Any other query is analyzed and run as a phrase.
func ProximitySearch(query string, idx *index.PositionalIndex, analyzer tokenizer.Analyzer) []int {
	plan, ok := parser.ParseProximity(query)
	if !ok {
		return PhraseSearch(analyzer.Analyze(query), idx)
	}

	result := []int{}
	left, right := idx.Postings(plan.Left), idx.Postings(plan.Right)
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i].DocID < right[j].DocID:
			i++
		case left[i].DocID > right[j].DocID:
			j++
		default:
			if minDistance(left[i].Positions, right[j].Positions) <= plan.Window {
				result = append(result, left[i].DocID)
			}
			i++
			j++
		}
	}
	return result
}

// RankedRetrieval analyzes query and returns up to topK documents scored
// against model. A ranked index with inconsistent dimensions is an error.
func RankedRetrieval(query string, idx *index.RankedIndex, analyzer tokenizer.Analyzer, model ranker.Model, topK int) ([]ranker.ScoredDoc, error) {
	return ranker.Rank(idx, analyzer.Analyze(query), model, topK)
}

// minDistance walks two ascending position lists and returns the smallest
// |a-b| over all pairs.
func minDistance(a, b []int) int {
	best := int(^uint(0) >> 1)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		d := a[i] - b[j]
		if d < 0 {
			d = -d
			i++
		} else {
			j++
		}
		if d < best {
			best = d
		}
		if best == 0 {
			break
		}
	}
	return best
}

func containsSorted(list []int, v int) bool {
	k := sort.SearchInts(list, v)
	return k < len(list) && list[k] == v
}

func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
