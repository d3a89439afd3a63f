package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWorstStatusWins(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "positional.spdx")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	c := NewChecker()
	c.Register("segment", PathCheck(present))
	report := c.Run(context.Background())
	assert.Equal(t, StatusUp, report.Status)

	c.Register("postgres", PingCheck(func(context.Context) error { return errors.New("refused") }))
	report = c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Components["postgres"].Message, "refused")

	c.Register("model", PathCheck(filepath.Join(dir, "missing.db")))
	report = c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, []string{"model", "postgres", "segment"}, c.Names())
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("model", PathCheck(filepath.Join(t.TempDir(), "nope")))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckTimeoutBoundsSlowProbe(t *testing.T) {
	c := NewChecker()
	c.CheckTimeout = 20 * time.Millisecond
	c.Register("postgres", PingCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Components["postgres"].Message, "deadline exceeded")
}
