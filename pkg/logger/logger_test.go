package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")

	WithComponent("indexer").Info("dropped")
	ctx := WithQueryID(context.Background(), "q-1")
	FromContext(ctx).Warn("slow query", "ms", 12)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "slow query", line["msg"])
	assert.Equal(t, "q-1", line["query_id"])
	assert.Equal(t, float64(12), line["ms"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestParseLevelAliases(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelDebug+2, parseLevel("debug+2"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestQueryID(t *testing.T) {
	assert.Empty(t, QueryID(context.Background()))
	assert.Equal(t, "q-7", QueryID(WithQueryID(context.Background(), "q-7")))
}
