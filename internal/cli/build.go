package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/kafka"
)

type buildFlags struct {
	csvPath    string
	column     string
	dir        string
	glob       string
	workers    int
	noProgress bool
}

func (a *app) newBuildCommand() *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and persist the indexes",
		Long: `Load a document collection, build the Boolean, positional and
ranked indexes and write them to the index directory.

Documents come either from one column of a CSV file or from the text
files under a directory.

Examples:
  irkit build --csv Articles.csv --column Article
  irkit build --dir ./corpus --glob '**/*.txt'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "CSV file with one document per row")
	cmd.Flags().StringVar(&f.column, "column", "", "CSV column holding the text (default corpus.column)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory of text files")
	cmd.Flags().StringVar(&f.glob, "glob", "", "file pattern under --dir (default corpus.glob)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "index build workers (default index.workers)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "do not draw a progress bar")
	cmd.MarkFlagsMutuallyExclusive("csv", "dir")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, f *buildFlags) error {
	ctx := cmd.Context()
	cc := a.cfg.Corpus
	if f.csvPath != "" {
		cc.CSVPath, cc.Dir = f.csvPath, ""
	}
	if f.dir != "" {
		cc.Dir, cc.CSVPath = f.dir, ""
	}
	if f.column != "" {
		cc.Column = f.column
	}
	if f.glob != "" {
		cc.Glob = f.glob
	}
	if f.workers > 0 {
		a.cfg.Index.Workers = f.workers
	}

	out := cmd.OutOrStdout()
	bar := &loadProgress{w: cmd.ErrOrStderr()}
	var progress corpus.ProgressFunc
	if !f.noProgress {
		progress = bar.update
	}

	var (
		docs *corpus.Store
		err  error
	)
	switch {
	case cc.CSVPath != "":
		fmt.Fprintf(out, "Loading %s (column %q)...\n", cc.CSVPath, cc.Column)
		docs, err = corpus.LoadCSV(ctx, cc.CSVPath, cc.Column, a.analyzer(), progress)
	case cc.Dir != "":
		fmt.Fprintf(out, "Scanning %s for %s...\n", cc.Dir, cc.Glob)
		var files []string
		docs, files, err = corpus.LoadFiles(ctx, cc.Dir, cc.Glob, a.analyzer(), progress)
		if err == nil {
			fmt.Fprintf(out, "Matched %d files\n", len(files))
		}
	default:
		return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage,
			"no corpus given: pass --csv or --dir, or set corpus.csvPath or corpus.dir")
	}
	bar.finish()
	if err != nil {
		return err
	}

	var opts []indexer.Option
	if a.cfg.Kafka.Enabled {
		producer := kafka.NewProducer(a.cfg.Kafka, a.cfg.Kafka.IndexComplete)
		defer producer.Close()
		opts = append(opts, indexer.WithPublisher(producer))
	}

	snap, err := a.engine(opts...).Build(ctx, docs)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Index build complete")
	fmt.Fprintf(out, "  Documents:       %d\n", snap.Corpus.Len())
	fmt.Fprintf(out, "  Vocabulary:      %d\n", snap.Positional.Len())
	fmt.Fprintf(out, "  Avg doc length:  %.1f tokens\n", snap.Corpus.AvgLength())
	fmt.Fprintf(out, "  Saved to:        %s\n", a.cfg.Index.DataDir)
	return nil
}

// loadProgress draws a bar once the first callback reports the total. An
// unknown total draws a spinner instead.
type loadProgress struct {
	mu   sync.Mutex
	w    io.Writer
	bar  *progressbar.ProgressBar
	done bool
}

func (p *loadProgress) update(processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Loading[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.w)
			}),
		)
	}
	_ = p.bar.Set(processed)
}

func (p *loadProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil && !p.done {
		_ = p.bar.Finish()
	}
	p.done = true
}
