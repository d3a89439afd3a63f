package executor

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/ranker"
)

func benchCorpus(b *testing.B, n int) *corpus.Store {
	b.Helper()
	vocab := []string{"oil", "price", "market", "crude", "export", "bank", "rate", "rain", "flood", "city"}
	docs := make([][]string, n)
	for i := range docs {
		doc := make([]string, 0, 12)
		for j := 0; j < 12; j++ {
			doc = append(doc, vocab[(i*7+j*3+j*j)%len(vocab)])
		}
		docs[i] = doc
	}
	s, err := corpus.FromTokens(docs)
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkBooleanSearch(b *testing.B) {
	idx, err := index.BuildBoolean(benchCorpus(b, 10000))
	if err != nil {
		b.Fatal(err)
	}
	queries := map[string]string{
		"single": "oil",
		"and":    "oil AND price AND market",
		"or":     "rain OR flood OR city",
		"mixed":  "oil AND price OR rain AND flood",
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = BooleanSearch(q, idx)
			}
		})
	}
}

func BenchmarkProximitySearch(b *testing.B) {
	idx, err := index.BuildPositional(benchCorpus(b, 10000))
	if err != nil {
		b.Fatal(err)
	}
	analyzer := tokenizer.New(tokenizer.Options{})
	for _, q := range []string{"oil price", "oil /3 price", "crude export bank"} {
		b.Run(q, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ProximitySearch(q, idx, analyzer)
			}
		})
	}
}

// BenchmarkRankedRetrieval measures scoring plus top-k selection as the
// corpus grows.
func BenchmarkRankedRetrieval(b *testing.B) {
	analyzer := tokenizer.New(tokenizer.Options{})
	for _, n := range []int{1000, 10000} {
		idx, err := index.BuildRanked(benchCorpus(b, n), index.DefaultParams())
		if err != nil {
			b.Fatal(err)
		}
		for _, model := range []ranker.Model{ranker.ModelBM25, ranker.ModelTFIDF} {
			b.Run(fmt.Sprintf("docs_%d_%s", n, model), func(b *testing.B) {
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := RankedRetrieval("crude oil export", idx, analyzer, model, 10); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
