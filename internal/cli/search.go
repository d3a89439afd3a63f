package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/resilience"
)

func (a *app) newSearchCommand() *cobra.Command {
	var (
		topK  int
		model string
	)
	cmd := &cobra.Command{
		Use:   "search boolean|phrase|ranked QUERY...",
		Short: "Query the indexes",
		Long: `Run a query against one of the indexes.

  boolean   terms joined by AND / OR, folded left to right
  phrase    an exact phrase, or "t1 /k t2" for terms within k positions
  ranked    free text scored with BM25 or TF-IDF

Examples:
  irkit search boolean "oil AND price OR gas"
  irkit search phrase "crude oil"
  irkit search phrase "oil /3 price"
  irkit search ranked "oil exports fall" --top-k 5 --model tfidf`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := executor.ParseMode(args[0])
			if err != nil {
				return err
			}
			return a.runSearch(cmd.Context(), cmd.OutOrStdout(), mode, strings.Join(args[1:], " "), topK, model)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "ranked results to return (default search.defaultTopK)")
	cmd.Flags().StringVar(&model, "model", "", "bm25 or tfidf (default ranking.model)")
	return cmd
}

func (a *app) runSearch(ctx context.Context, out io.Writer, mode executor.Mode, query string, topK int, model string) error {
	snap, exec, err := a.executor(ctx, model)
	if err != nil {
		return err
	}
	ctx = logger.WithQueryID(ctx, uuid.NewString())
	return resilience.WithTimeout(ctx, a.cfg.Search.Timeout, "search", func(ctx context.Context) error {
		if mode == executor.ModeRanked {
			docs, err := exec.Ranked(ctx, query, a.topK(topK))
			if err != nil {
				return err
			}
			printScored(out, snap.Corpus, docs, a.cfg.Search.SnippetTokens)
			return nil
		}
		ids, err := exec.IDs(ctx, mode, query, 0)
		if err != nil {
			return err
		}
		printDocs(out, snap.Corpus, ids, a.cfg.Search.SnippetTokens)
		return nil
	})
}

func printDocs(out io.Writer, docs *corpus.Store, ids []int, snippet int) {
	if len(ids) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return
	}
	fmt.Fprintf(out, "Found %d document(s):\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(out, "Doc %d: %s...\n", id, docs.Snippet(id, snippet))
	}
}

func printScored(out io.Writer, docs *corpus.Store, results []ranker.ScoredDoc, snippet int) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return
	}
	fmt.Fprintf(out, "Top %d document(s):\n", len(results))
	for i, r := range results {
		fmt.Fprintf(out, "%2d. Doc %d (score %.4f): %s...\n", i+1, r.DocID, r.Score, docs.Snippet(r.DocID, snippet))
	}
}
