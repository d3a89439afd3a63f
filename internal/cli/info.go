package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/store"
)

func (a *app) newInfoCommand() *cobra.Command {
	var terms []string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the persisted indexes",
		Long: `Describe the persisted indexes. With --term, also look the given
terms up in the positional segment and print their document and
collection frequencies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			report := a.health.Run(ctx)
			for _, name := range a.health.Names() {
				c := report.Components[name]
				if c.Message != "" {
					fmt.Fprintf(out, "%-10s %s (%s)\n", name+":", c.Status, c.Message)
				} else {
					fmt.Fprintf(out, "%-10s %s\n", name+":", c.Status)
				}
			}

			snap, err := a.engine().Open(ctx)
			if err != nil {
				return err
			}
			db, err := store.Open(indexer.DBPath(a.cfg.Index.DataDir), true)
			if err != nil {
				return err
			}
			builtAt, err := db.BuiltAt()
			db.Close()
			if err != nil {
				return err
			}

			p := snap.Ranked.Params()
			fmt.Fprintf(out, "Index directory: %s\n", a.cfg.Index.DataDir)
			fmt.Fprintf(out, "Built at:        %s\n", builtAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "Documents:       %d\n", snap.Corpus.Len())
			fmt.Fprintf(out, "Tokens:          %d\n", snap.Corpus.TotalTokens())
			fmt.Fprintf(out, "Vocabulary:      %d\n", snap.Positional.Len())
			fmt.Fprintf(out, "Avg doc length:  %.2f\n", snap.Ranked.AvgDocLen())
			fmt.Fprintf(out, "BM25 k1 / b:     %.2f / %.2f\n", p.K1, p.B)
			if len(terms) == 0 {
				return nil
			}
			return a.printTermStats(out, terms)
		},
	}
	cmd.Flags().StringSliceVar(&terms, "term", nil, "terms to look up, e.g. --term oil,price")
	return cmd
}

// printTermStats reads single posting lists straight from the segment.
func (a *app) printTermStats(out io.Writer, terms []string) error {
	seg, err := segment.Open(indexer.SegmentPath(a.cfg.Index.DataDir))
	if err != nil {
		return err
	}
	defer seg.Close()

	analyzer := a.analyzer()
	for _, raw := range terms {
		analyzed := analyzer.Analyze(raw)
		if len(analyzed) == 0 {
			fmt.Fprintf(out, "Term %-15q not indexed (stop word)\n", raw)
			continue
		}
		postings, err := seg.Search(analyzed[0])
		if err != nil {
			return err
		}
		cf := 0
		for _, p := range postings {
			cf += p.Frequency()
		}
		fmt.Fprintf(out, "Term %-15q df=%d cf=%d\n", analyzed[0], len(postings), cf)
	}
	return nil
}
