// Package cli implements the irkit command line: building the indexes,
// querying them, expanding queries and evaluating result sets.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/middleware"
)

// app carries the state shared by every subcommand once the persistent
// pre-run has loaded the configuration.
type app struct {
	cfgFile     string
	dataDir     string
	metricsPort int
	logLevel    string

	cfg         *config.Config
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	health      *health.Checker
	stopMetrics func(context.Context) error
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "irkit",
		Short: "Batch information-retrieval toolkit",
		Long: `irkit builds Boolean, positional and TF-IDF/BM25 indexes over a
document collection and answers queries against them.

Example usage:
  irkit build --csv Articles.csv --column Article
  irkit search boolean "oil AND price"
  irkit search phrase "oil /3 price"
  irkit search ranked "crude oil exports" --top-k 5
  irkit eval --mode ranked --relevant 2,3,4 "crude oil"`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.StringVar(&a.dataDir, "data-dir", "", "index directory (overrides index.dataDir)")
	flags.IntVar(&a.metricsPort, "metrics-port", 0, "serve Prometheus metrics and health probes on this port")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides logging.level)")

	root.AddCommand(
		a.newBuildCommand(),
		a.newSearchCommand(),
		a.newExpandCommand(),
		a.newEvalCommand(),
		a.newInfoCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
// Cancelling ctx interrupts loading, building and querying.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "loading config: %v", err)
	}
	if a.dataDir != "" {
		cfg.Index.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = a.metricsPort
	}
	a.cfg = cfg
	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = metrics.New(a.registry)

	a.health = health.NewChecker()
	a.health.Register("index", health.PathCheck(
		indexer.SegmentPath(cfg.Index.DataDir),
		indexer.DBPath(cfg.Index.DataDir),
	))
	if cfg.Metrics.Enabled {
		var handler http.Handler = metrics.NewMux(a.registry, a.health)
		handler = middleware.Metrics(a.metrics)(middleware.Timeout(10 * time.Second)(handler))
		stop, err := metrics.StartServer(cfg.Metrics.Port, handler)
		if err != nil {
			return err
		}
		a.stopMetrics = stop
	}
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.stopMetrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.stopMetrics(ctx)
}

func (a *app) analyzer() tokenizer.Analyzer {
	return tokenizer.New(tokenizer.Options{
		Stem:      a.cfg.Corpus.Stem,
		StopWords: a.cfg.Corpus.StopWords,
		MinLength: a.cfg.Corpus.MinLength,
	})
}

func (a *app) params() index.Params {
	return index.Params{K1: a.cfg.Ranking.K1, B: a.cfg.Ranking.B}
}

func (a *app) engine(opts ...indexer.Option) *indexer.Engine {
	opts = append([]indexer.Option{indexer.WithMetrics(a.metrics)}, opts...)
	return indexer.NewEngine(a.cfg.Index, a.params(), opts...)
}

// executor opens the persisted indexes and wraps them for querying.
func (a *app) executor(ctx context.Context, model string) (*indexer.Snapshot, *executor.Executor, error) {
	if model == "" {
		model = a.cfg.Ranking.Model
	}
	m, err := ranker.ParseModel(model)
	if err != nil {
		return nil, nil, apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
	}
	snap, err := a.engine().Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	exec := executor.New(executor.Indexes{
		Boolean:    snap.Boolean,
		Positional: snap.Positional,
		Ranked:     snap.Ranked,
	}, a.analyzer(), executor.WithModel(m), executor.WithMetrics(a.metrics))
	return snap, exec, nil
}

// topK resolves the --top-k flag against the configured default and cap.
func (a *app) topK(requested int) int {
	if requested == 0 {
		requested = a.cfg.Search.DefaultTopK
	}
	if limit := a.cfg.Search.MaxTopK; limit > 0 && requested > limit {
		return limit
	}
	return requested
}
