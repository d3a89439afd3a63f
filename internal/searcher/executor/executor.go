// Package executor evaluates queries against the Boolean, positional and
// ranked indexes. The package-level functions are pure; Executor wraps them
// with logging, metrics and tracing for the CLI.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/tracing"
)

// Mode names a query evaluator. It doubles as the metrics label.
type Mode string

const (
	ModeBoolean Mode = "boolean"
	ModePhrase  Mode = "phrase"
	ModeRanked  Mode = "ranked"
)

// ParseMode maps a CLI argument to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBoolean, ModePhrase, ModeRanked:
		return Mode(s), nil
	}
	return "", apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "unknown search mode %q (want boolean, phrase or ranked)", s)
}

// Indexes bundles the immutable indexes an Executor reads. Any may be nil
// if the corresponding mode is not needed.
type Indexes struct {
	Boolean    *index.BooleanIndex
	Positional *index.PositionalIndex
	Ranked     *index.RankedIndex
}

type Executor struct {
	indexes  Indexes
	analyzer tokenizer.Analyzer
	model    ranker.Model
	metrics  *metrics.Metrics
}

type Option func(*Executor)

func WithModel(m ranker.Model) Option {
	return func(e *Executor) { e.model = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func New(indexes Indexes, analyzer tokenizer.Analyzer, opts ...Option) *Executor {
	e := &Executor{
		indexes:  indexes,
		analyzer: analyzer,
		model:    ranker.ModelBM25,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Model() ranker.Model { return e.model }

// Boolean runs a left-fold AND/OR query.
func (e *Executor) Boolean(ctx context.Context, query string) ([]int, error) {
	if e.indexes.Boolean == nil {
		return nil, e.missing(ModeBoolean)
	}
	var docs []int
	err := e.observe(ctx, ModeBoolean, query, func(ctx context.Context) (int, error) {
		docs = BooleanSearch(query, e.indexes.Boolean)
		return len(docs), nil
	})
	return docs, err
}

// Positional runs a proximity query, or a phrase query when the input is
// not of the form "t1 /k t2".
func (e *Executor) Positional(ctx context.Context, query string) ([]int, error) {
	if e.indexes.Positional == nil {
		return nil, e.missing(ModePhrase)
	}
	var docs []int
	err := e.observe(ctx, ModePhrase, query, func(ctx context.Context) (int, error) {
		docs = ProximitySearch(query, e.indexes.Positional, e.analyzer)
		return len(docs), nil
	})
	return docs, err
}

// Ranked returns the topK best documents under the executor's model.
func (e *Executor) Ranked(ctx context.Context, query string, topK int) ([]ranker.ScoredDoc, error) {
	if e.indexes.Ranked == nil {
		return nil, e.missing(ModeRanked)
	}
	var docs []ranker.ScoredDoc
	err := e.observe(ctx, ModeRanked, query, func(ctx context.Context) (int, error) {
		_, span := tracing.Start(ctx, "rank")
		span.SetAttr("model", string(e.model))
		span.SetAttr("top_k", topK)
		defer span.End()

		var err error
		docs, err = RankedRetrieval(query, e.indexes.Ranked, e.analyzer, e.model, topK)
		return len(docs), err
	})
	return docs, err
}

// IDs runs query in mode and returns only document ids, in the order the
// evaluator produced them.
func (e *Executor) IDs(ctx context.Context, mode Mode, query string, topK int) ([]int, error) {
	switch mode {
	case ModeBoolean:
		return e.Boolean(ctx, query)
	case ModePhrase:
		return e.Positional(ctx, query)
	case ModeRanked:
		scored, err := e.Ranked(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		ids := make([]int, len(scored))
		for i, d := range scored {
			ids[i] = d.DocID
		}
		return ids, nil
	}
	return nil, fmt.Errorf("search mode %q: %w", mode, apperrors.ErrInvalidInput)
}

func (e *Executor) observe(ctx context.Context, mode Mode, query string, run func(context.Context) (int, error)) error {
	ctx, span := tracing.Start(ctx, "query."+string(mode))
	span.SetAttr("query", query)
	start := time.Now()

	n, err := run(ctx)

	span.SetAttr("results", n)
	span.End()
	elapsed := time.Since(start)

	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case n == 0:
		outcome = "zero_result"
	}
	if e.metrics != nil {
		e.metrics.QueriesTotal.WithLabelValues(string(mode), outcome).Inc()
		e.metrics.QueryLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
		if err == nil {
			e.metrics.QueryResultsCount.WithLabelValues(string(mode)).Observe(float64(n))
		}
	}

	log := logger.FromContext(ctx).With("component", "query-executor", "trace_id", span.TraceID, "mode", mode)
	if err != nil {
		log.Error("query failed", "query", query, "error", err)
		return err
	}
	log.Info("query executed",
		"query", query,
		"results", n,
		"duration", elapsed,
	)
	span.Log(log)
	return nil
}

func (e *Executor) missing(mode Mode) error {
	return apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNoIndex, "%s index not loaded", mode)
}
