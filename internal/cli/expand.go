package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/searcher/expand"
)

func (a *app) newExpandCommand() *cobra.Command {
	var (
		topDocs  int
		addTerms int
		search   bool
		topK     int
	)
	cmd := &cobra.Command{
		Use:   "expand QUERY...",
		Short: "Suggest expansion terms by pseudo-relevance feedback",
		Long: `Rank documents for the query by TF-IDF cosine similarity, average
the vectors of the best ones and suggest the heaviest terms that are not
already in the query.

Examples:
  irkit expand "oil price"
  irkit expand "oil price" --add-terms 3 --search`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			query := strings.Join(args, " ")

			opts := expand.Options{TopDocs: a.cfg.Search.ExpandTopDocs, AddTerms: a.cfg.Search.ExpandAddTerms}
			if topDocs > 0 {
				opts.TopDocs = topDocs
			}
			if addTerms > 0 {
				opts.AddTerms = addTerms
			}

			snap, err := a.engine().Open(ctx)
			if err != nil {
				return err
			}
			terms, err := expand.Expand(snap.Ranked, a.analyzer().Analyze(query), opts)
			if err != nil {
				return err
			}
			if len(terms) == 0 {
				fmt.Fprintln(out, "No expansion terms found.")
				return nil
			}
			fmt.Fprintln(out, "Suggested terms:")
			for _, t := range terms {
				fmt.Fprintf(out, "  %-20s %.4f\n", t.Term, t.Weight)
			}
			expanded := expand.Query(query, terms)
			fmt.Fprintf(out, "Expanded query: %s\n", expanded)

			if !search {
				return nil
			}
			fmt.Fprintln(out)
			return a.runSearch(ctx, out, executor.ModeRanked, expanded, topK, "")
		},
	}
	cmd.Flags().IntVar(&topDocs, "top-docs", 0, "feedback documents (default search.expandTopDocs)")
	cmd.Flags().IntVar(&addTerms, "add-terms", 0, "terms to suggest (default search.expandAddTerms)")
	cmd.Flags().BoolVar(&search, "search", false, "run a ranked search with the expanded query")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "ranked results for --search")
	return cmd
}
