package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/eval"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/resilience"
)

type evalFlags struct {
	mode     string
	relevant string
	topK     int
	model    string
	save     bool
}

func (a *app) newEvalCommand() *cobra.Command {
	f := &evalFlags{}
	cmd := &cobra.Command{
		Use:   "eval QUERY...",
		Short: "Score a query's results against known relevant documents",
		Long: `Run a query and report precision, recall and F1 against the given
relevant document ids. With --save the report is stored in PostgreSQL.

Examples:
  irkit eval --mode boolean --relevant 2,3,4 "oil AND price"
  irkit eval --mode ranked --relevant 2,3,4 --top-k 5 --save "crude oil"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEval(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), f)
		},
	}
	cmd.Flags().StringVar(&f.mode, "mode", string(executor.ModeRanked), "boolean, phrase or ranked")
	cmd.Flags().StringVar(&f.relevant, "relevant", "", "relevant document ids, e.g. 2,3,4")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "ranked results to evaluate (default search.defaultTopK)")
	cmd.Flags().StringVar(&f.model, "model", "", "bm25 or tfidf (default ranking.model)")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the report in PostgreSQL")
	_ = cmd.MarkFlagRequired("relevant")

	cmd.AddCommand(a.newEvalHistoryCommand())
	return cmd
}

func (a *app) runEval(ctx context.Context, out io.Writer, query string, f *evalFlags) error {
	mode, err := executor.ParseMode(f.mode)
	if err != nil {
		return err
	}
	relevant, err := eval.ParseIDs(f.relevant)
	if err != nil {
		return err
	}
	_, exec, err := a.executor(ctx, f.model)
	if err != nil {
		return err
	}

	var retrieved []int
	ctx = logger.WithQueryID(ctx, uuid.NewString())
	err = resilience.WithTimeout(ctx, a.cfg.Search.Timeout, "eval", func(ctx context.Context) error {
		var err error
		retrieved, err = exec.IDs(ctx, mode, query, a.topK(f.topK))
		return err
	})
	if err != nil {
		return err
	}

	report := eval.NewReport(query, string(mode), retrieved, relevant)
	a.metrics.EvaluationsTotal.WithLabelValues(report.Mode).Inc()
	a.metrics.EvaluationF1.WithLabelValues(report.Mode).Observe(report.Metrics.F1)
	fmt.Fprint(out, report.Format())

	if !f.save {
		return nil
	}
	store, closeDB, err := a.evalStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()
	if err := store.Save(ctx, report); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved report %s\n", report.ID)
	return nil
}

func (a *app) newEvalHistoryCommand() *cobra.Command {
	var (
		limit int
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored evaluation reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			store, closeDB, err := a.evalStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			reports, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "No evaluation reports stored.")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(out, "%s  %-8s P=%.4f R=%.4f F1=%.4f  %s\n",
					r.EvaluatedAt.Format("2006-01-02 15:04:05"), r.Mode,
					r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1, r.Query)
			}
			if mode == "" {
				return nil
			}
			mean, n, err := store.MeanF1(ctx, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Mean F1 (%s, %d reports): %.4f\n", mode, n, mean)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "reports to list")
	cmd.Flags().StringVar(&mode, "mode", "", "also print the mean F1 over all reports of this mode")
	return cmd
}

// evalStore connects to PostgreSQL and makes sure the reports table exists.
func (a *app) evalStore(ctx context.Context) (*eval.Store, func(), error) {
	if !a.cfg.Postgres.Enabled {
		return nil, nil, apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage,
			"postgres is disabled; set postgres.enabled or IR_POSTGRES_ENABLED=true")
	}
	db, err := postgres.New(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	a.health.Register("postgres", health.PingCheck(db.Ping))
	store := eval.NewStore(db, resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
