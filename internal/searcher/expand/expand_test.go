package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

func newsIndex(t *testing.T) *index.RankedIndex {
	t.Helper()
	store, err := corpus.FromTokens([][]string{
		{"oil", "price", "market"},
		{"oil", "price", "crude"},
		{"rain", "city"},
		{"oil", "spill", "river"},
	})
	require.NoError(t, err)
	idx, err := index.BuildRanked(store, index.DefaultParams())
	require.NoError(t, err)
	return idx
}

func TestExpandFromTopDocuments(t *testing.T) {
	idx := newsIndex(t)
	got, err := Expand(idx, []string{"oil", "price"}, Options{TopDocs: 2, AddTerms: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "crude", got[0].Term)
	assert.Equal(t, "market", got[1].Term)
	assert.InDelta(t, got[0].Weight, got[1].Weight, 1e-12)
	assert.Greater(t, got[0].Weight, 0.0)
}

func TestExpandExcludesQueryTerms(t *testing.T) {
	idx := newsIndex(t)
	got, err := Expand(idx, []string{"oil"}, Options{TopDocs: 4, AddTerms: 10})
	require.NoError(t, err)
	for _, term := range got {
		assert.NotEqual(t, "oil", term.Term)
		assert.NotEqual(t, "rain", term.Term, "documents without the query term are not feedback")
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Weight, got[i].Weight)
	}
}

func TestExpandNothingToDo(t *testing.T) {
	idx := newsIndex(t)

	got, err := Expand(idx, []string{"zebra"}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Expand(idx, []string{"oil"}, Options{TopDocs: 0, AddTerms: 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandRejectsInconsistentIndex(t *testing.T) {
	idx := newsIndex(t)
	idx.TFIDF().Cols--
	_, err := Expand(idx, []string{"oil"}, DefaultOptions())
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "oil price crude", Query(" oil price ", []Term{{Term: "crude"}}))
	assert.Equal(t, "crude", Query("", []Term{{Term: "crude"}}))
}
