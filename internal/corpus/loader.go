package corpus

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// ProgressFunc is called after each document is processed. total is -1
// when the size of the input is not known in advance.
type ProgressFunc func(processed, total int)

// LoadCSV reads one document per CSV row from the named column. Ids are
// assigned in order of successfully parsed rows; malformed rows are
// skipped and logged.
func LoadCSV(ctx context.Context, path, column string, analyzer tokenizer.Analyzer, progress ProgressFunc) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f, column, analyzer, progress)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(ctx context.Context, r io.Reader, column string, analyzer tokenizer.Analyzer, progress ProgressFunc) (*Store, error) {
	logger := slog.Default().With("component", "corpus-loader")
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	col := -1
	for i, name := range header {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv has no column %q: %w", column, apperrors.ErrInvalidInput)
	}

	docs := make([]Document, 0, 1024)
	skipped := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				skipped++
				logger.Warn("skipping malformed csv row", "line", parseErr.Line, "error", err)
				continue
			}
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if col >= len(record) {
			skipped++
			logger.Warn("skipping short csv row", "fields", len(record))
			continue
		}
		docs = append(docs, Document{
			ID:     len(docs),
			Tokens: analyzer.Analyze(record[col]),
		})
		if progress != nil {
			progress(len(docs), -1)
		}
	}
	logger.Info("csv corpus loaded", "documents", len(docs), "skipped", skipped)
	return NewStore(docs)
}

// LoadFiles loads every file under root whose slash-separated relative
// path matches the doublestar pattern. Ids follow sorted path order. The
// returned paths are indexed by document id.
func LoadFiles(ctx context.Context, root, pattern string, analyzer tokenizer.Analyzer, progress ProgressFunc) (*Store, []string, error) {
	return LoadFS(ctx, os.DirFS(root), pattern, analyzer, progress)
}

// LoadFS is LoadFiles over an fs.FS.
func LoadFS(ctx context.Context, fsys fs.FS, pattern string, analyzer tokenizer.Analyzer, progress ProgressFunc) (*Store, []string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, apperrors.ErrInvalidInput)
	}
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("globbing %q: %w", pattern, err)
	}
	sort.Strings(matches)

	docs := make([]Document, 0, len(matches))
	paths := make([]string, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		info, err := fs.Stat(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, Document{
			ID:     len(docs),
			Tokens: analyzer.Analyze(string(data)),
		})
		paths = append(paths, path)
		if progress != nil {
			progress(len(docs), len(matches))
		}
	}
	store, err := NewStore(docs)
	if err != nil {
		return nil, nil, err
	}
	return store, paths, nil
}
