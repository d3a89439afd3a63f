package tokenizer

import (
	"fmt"
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "Oil prices rose sharply on Monday as traders weighed supply cuts",
	"medium": `Crude oil futures climbed for a third straight session after producers
        signalled further output restrictions. Analysts said inventories were
        drawing down faster than expected, while refiners reported strong margins
        heading into the summer driving season.`,
	"long": strings.Repeat(`Information retrieval systems combine tokenization, stemming and
        stop word removal to normalize text into searchable terms. The inverted
        index maps each term to the documents containing it, along with positional
        information for phrase queries. BM25 ranking considers term frequency,
        document length normalization and inverse document frequency. `, 20),
}

func BenchmarkAnalyze(b *testing.B) {
	t := New(DefaultOptions())
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = t.Analyze(text)
			}
		})
	}
}

func BenchmarkAnalyzeParallel(b *testing.B) {
	t := New(DefaultOptions())
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = t.Analyze(text)
		}
	})
}

func BenchmarkStem(b *testing.B) {
	words := []string{
		"running", "relational", "searching", "indexing",
		"tokenization", "normalization", "efficiently",
		"processing", "happiness", "conditional",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, w := range words {
			_ = stem(w)
		}
	}
}

func BenchmarkAnalyzeVaryingSize(b *testing.B) {
	t := New(DefaultOptions())
	base := "crude oil prices search ranking platform indexing "
	for _, size := range []int{10, 100, 1000, 10000} {
		text := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = t.Analyze(text)
			}
		})
	}
}
