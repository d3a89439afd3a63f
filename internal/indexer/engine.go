// Package indexer builds the Boolean, positional and ranked indexes from a
// document store, persists them under a data directory and loads them back.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/store"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/tracing"
)

// Snapshot is a complete, immutable set of indexes over one corpus.
type Snapshot struct {
	Corpus     *corpus.Store
	Boolean    *index.BooleanIndex
	Positional *index.PositionalIndex
	Ranked     *index.RankedIndex
}

// IndexCompleteEvent is published after a successful build.
type IndexCompleteEvent struct {
	DataDir    string    `json:"data_dir"`
	Docs       int       `json:"docs"`
	Terms      int       `json:"terms"`
	K1         float64   `json:"k1"`
	B          float64   `json:"b"`
	DurationMs int64     `json:"duration_ms"`
	BuiltAt    time.Time `json:"built_at"`
}

type Engine struct {
	cfg       config.IndexConfig
	params    index.Params
	metrics   *metrics.Metrics
	publisher kafka.Publisher
	logger    *slog.Logger
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPublisher announces finished builds through p.
func WithPublisher(p kafka.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func NewEngine(cfg config.IndexConfig, params index.Params, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		params: params,
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SegmentPath and DBPath locate the persisted files of dataDir.
func SegmentPath(dataDir string) string { return filepath.Join(dataDir, segment.FileName) }

func DBPath(dataDir string) string { return filepath.Join(dataDir, store.FileName) }

// Build constructs all three indexes concurrently, writes them to the data
// directory and returns them.
func (e *Engine) Build(ctx context.Context, docs *corpus.Store) (*Snapshot, error) {
	if docs == nil || docs.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCorpus, apperrors.ExitUsage, "no documents to index")
	}
	ctx, span := tracing.Start(ctx, "index.build")
	defer func() {
		span.End()
		span.Log(e.logger)
	}()
	start := time.Now()
	span.SetAttr("docs", docs.Len())

	snap := &Snapshot{Corpus: docs}
	workers := index.WithWorkers(e.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.timed(gctx, "boolean", func() (int, error) {
			var err error
			snap.Boolean, err = index.BuildBoolean(docs, workers)
			if err != nil {
				return 0, err
			}
			return snap.Boolean.Len(), nil
		})
	})
	g.Go(func() error {
		return e.timed(gctx, "positional", func() (int, error) {
			var err error
			snap.Positional, err = index.BuildPositional(docs, workers)
			if err != nil {
				return 0, err
			}
			return snap.Positional.Len(), nil
		})
	})
	g.Go(func() error {
		return e.timed(gctx, "ranked", func() (int, error) {
			var err error
			snap.Ranked, err = index.BuildRanked(docs, e.params, workers)
			if err != nil {
				return 0, err
			}
			return len(snap.Ranked.Terms()), nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building indexes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building indexes: %w", err)
	}

	if err := e.persist(ctx, snap); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.DocsIndexed.Set(float64(docs.Len()))
	}
	e.logger.Info("indexes built",
		"docs", docs.Len(),
		"terms", snap.Positional.Len(),
		"avg_doc_len", docs.AvgLength(),
		"data_dir", e.cfg.DataDir,
		"duration", elapsed,
	)
	e.announce(ctx, snap, elapsed)
	return snap, nil
}

func (e *Engine) timed(ctx context.Context, name string, build func() (terms int, err error)) error {
	_, span := tracing.Start(ctx, "index.build."+name)
	defer span.End()
	start := time.Now()
	terms, err := build()
	if err != nil {
		return fmt.Errorf("%s index: %w", name, err)
	}
	span.SetAttr("terms", terms)
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		e.metrics.IndexTerms.WithLabelValues(name).Set(float64(terms))
	}
	return nil
}

func (e *Engine) persist(ctx context.Context, snap *Snapshot) error {
	_, span := tracing.Start(ctx, "index.persist")
	defer span.End()

	if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating index data directory: %w", err)
	}
	if err := segment.Write(SegmentPath(e.cfg.DataDir), snap.Positional); err != nil {
		return fmt.Errorf("writing positional segment: %w", err)
	}
	db, err := store.Open(DBPath(e.cfg.DataDir), false)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PutCorpus(snap.Corpus); err != nil {
		return fmt.Errorf("writing document store: %w", err)
	}
	if err := db.PutRanked(snap.Ranked); err != nil {
		return fmt.Errorf("writing ranked model: %w", err)
	}
	return nil
}

// announce publishes the build event. The indexes are already on disk, so a
// broker failure is logged and not returned.
func (e *Engine) announce(ctx context.Context, snap *Snapshot, elapsed time.Duration) {
	if e.publisher == nil {
		return
	}
	p := snap.Ranked.Params()
	event := IndexCompleteEvent{
		DataDir:    e.cfg.DataDir,
		Docs:       snap.Corpus.Len(),
		Terms:      snap.Positional.Len(),
		K1:         p.K1,
		B:          p.B,
		DurationMs: elapsed.Milliseconds(),
		BuiltAt:    time.Now().UTC(),
	}
	if err := e.publisher.Publish(ctx, kafka.Event{Key: e.cfg.DataDir, Type: "index.complete", Value: event}); err != nil {
		e.logger.Warn("index-complete event not published", "error", err)
	}
}

// Open loads the indexes persisted in the data directory. The Boolean index
// is derived from the positional postings.
func (e *Engine) Open(ctx context.Context) (*Snapshot, error) {
	segPath, dbPath := SegmentPath(e.cfg.DataDir), DBPath(e.cfg.DataDir)
	for _, p := range []string{segPath, dbPath} {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitNoIndex,
				"%s missing; run `irkit build` first", p)
		}
	}

	snap := &Snapshot{}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Positional, err = segment.Load(segPath)
		return err
	})
	g.Go(func() error {
		db, err := store.Open(dbPath, true)
		if err != nil {
			return err
		}
		defer db.Close()
		if snap.Corpus, err = db.Corpus(); err != nil {
			return err
		}
		snap.Ranked, err = db.Ranked()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading indexes from %s: %w", e.cfg.DataDir, err)
	}

	n := snap.Corpus.Len()
	if snap.Ranked.NumDocs() != n || snap.Positional.DocCount() != n {
		return nil, apperrors.Newf(apperrors.ErrCorruptIndex, apperrors.ExitBadIndex,
			"corpus has %d documents, ranked model %d, segment %d", n, snap.Ranked.NumDocs(), snap.Positional.DocCount())
	}
	snap.Boolean = index.BooleanFromPositional(snap.Positional)

	if e.metrics != nil {
		e.metrics.DocsIndexed.Set(float64(n))
	}
	e.logger.Debug("indexes loaded", "docs", n, "terms", snap.Positional.Len())
	return snap, nil
}
