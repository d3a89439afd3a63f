// Package index builds the three read-only inverted indexes over a frozen
// corpus: Boolean (term -> doc set), Positional (term -> doc -> positions)
// and Ranked (vocabulary, IDF, TF-IDF and BM25 matrices).
//
// Builds fan out over contiguous document partitions and merge the partial
// results in partition order, so the output never depends on the number of
// workers.
package index

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

type buildOptions struct {
	workers int
}

// Option tunes an index build.
type Option func(*buildOptions)

// WithWorkers sets how many partitions a build is split into. Values below
// one mean a sequential build.
func WithWorkers(n int) Option {
	return func(o *buildOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

func resolveOptions(opts []Option) buildOptions {
	o := buildOptions{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// span is a half-open range of document rows.
type span struct {
	lo, hi int
}

// partition splits n rows into at most workers contiguous spans.
func partition(n, workers int) []span {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	spans := make([]span, 0, workers)
	size := n / workers
	rem := n % workers
	lo := 0
	for i := 0; i < workers; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		spans = append(spans, span{lo: lo, hi: hi})
		lo = hi
	}
	return spans
}

// mapPartitions runs fn over every partition concurrently and returns the
// results in partition order.
func mapPartitions[T any](docs []corpus.Document, workers int, fn func(rowOffset int, part []corpus.Document) T) []T {
	spans := partition(len(docs), workers)
	out := make([]T, len(spans))
	var g errgroup.Group
	for i, sp := range spans {
		g.Go(func() error {
			out[i] = fn(sp.lo, docs[sp.lo:sp.hi])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func checkStore(store *corpus.Store) error {
	if store == nil || store.Len() == 0 {
		return apperrors.ErrEmptyCorpus
	}
	return nil
}
