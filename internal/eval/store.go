package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/resilience"
)

// Schema creates the table Store writes to.
const Schema = `CREATE TABLE IF NOT EXISTS evaluation_reports (
    id           UUID PRIMARY KEY,
    mode         TEXT NOT NULL,
    query        TEXT NOT NULL,
    f1           DOUBLE PRECISION NOT NULL,
    data         JSONB NOT NULL,
    evaluated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store persists evaluation reports in PostgreSQL.
type Store struct {
	db     *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

// NewStore wraps db. retry governs Save; zero fields take the resilience
// defaults.
func NewStore(db *postgres.Client, retry resilience.RetryConfig) *Store {
	return &Store{
		db:     db,
		retry:  retry,
		logger: slog.Default().With("component", "eval-store"),
	}
}

// Migrate creates the reports table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating evaluation_reports: %w", err)
	}
	return nil
}

// Save inserts r, retrying transient failures.
func (s *Store) Save(ctx context.Context, r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	err = resilience.Retry(ctx, "save-evaluation", s.retry, func() error {
		_, err := s.db.DB.ExecContext(ctx,
			`INSERT INTO evaluation_reports (id, mode, query, f1, data, evaluated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Mode, r.Query, r.Metrics.F1, data, r.EvaluatedAt,
		)
		return classify(err)
	})
	if err != nil {
		return fmt.Errorf("saving evaluation report: %w", err)
	}
	s.logger.Info("evaluation report saved",
		"id", r.ID,
		"mode", r.Mode,
		"f1", r.Metrics.F1,
	)
	return nil
}

// classify marks constraint and syntax errors permanent. Connection and
// resource errors stay retryable.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23", "42":
			return resilience.Permanent(err)
		}
	}
	return err
}

// Recent returns up to limit reports, newest first. Rows that no longer
// decode are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Report, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM evaluation_reports ORDER BY evaluated_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing evaluation reports: %w", err)
	}
	defer rows.Close()

	reports := make([]Report, 0, limit)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		var r Report
		if err := json.Unmarshal(data, &r); err != nil {
			s.logger.Warn("skipping corrupt report", "error", err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// MeanF1 averages F1 over all stored reports of mode.
func (s *Store) MeanF1(ctx context.Context, mode string) (mean float64, n int, err error) {
	var avg *float64
	err = s.db.DB.QueryRowContext(ctx,
		`SELECT AVG(f1), COUNT(*) FROM evaluation_reports WHERE mode = $1`,
		mode,
	).Scan(&avg, &n)
	if err != nil {
		return 0, 0, fmt.Errorf("averaging f1: %w", err)
	}
	if avg != nil {
		mean = *avg
	}
	return mean, n, nil
}
