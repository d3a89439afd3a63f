package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
)

func benchStore(b *testing.B, n int) *corpus.Store {
	b.Helper()
	terms := []string{"distribut", "search", "analyt", "platform", "index", "query", "engin", "rank"}
	docs := make([][]string, n)
	for i := range docs {
		docs[i] = []string{
			terms[i%len(terms)], terms[(i+1)%len(terms)], "document",
			terms[(i+2)%len(terms)], terms[(i+3)%len(terms)], "product", "system",
		}
	}
	s, err := corpus.FromTokens(docs)
	if err != nil {
		b.Fatal(err)
	}
	return s
}

// BenchmarkBuildPositional measures positional build throughput at several
// corpus sizes and worker counts.
func BenchmarkBuildPositional(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		for _, workers := range []int{1, 4} {
			store := benchStore(b, size)
			b.Run(fmt.Sprintf("docs_%d_workers_%d", size, workers), func(b *testing.B) {
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := BuildPositional(store, WithWorkers(workers)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkBuildRanked(b *testing.B) {
	store := benchStore(b, 5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildRanked(store, DefaultParams()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPositionsParallel measures concurrent read throughput against a
// built index.
func BenchmarkPositionsParallel(b *testing.B) {
	idx, err := BuildPositional(benchStore(b, 10000))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = idx.Positions("search", i%10000)
			i++
		}
	})
}
