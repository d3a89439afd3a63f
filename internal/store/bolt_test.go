package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

func sampleCorpus(t *testing.T) *corpus.Store {
	t.Helper()
	store, err := corpus.NewStore([]corpus.Document{
		{ID: 12, Tokens: []string{"oil", "price", "rise"}},
		{ID: 3, Tokens: []string{"rain", "city", "flood", "rain"}},
		{ID: 7, Tokens: []string{"oil", "spill"}},
	})
	require.NoError(t, err)
	return store
}

func TestCorpusRoundTripKeepsOrder(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	defer s.Close()

	want := sampleCorpus(t)
	require.NoError(t, s.PutCorpus(want))

	got, err := s.Corpus()
	require.NoError(t, err)
	assert.Equal(t, want.Docs(), got.Docs())
	assert.Equal(t, []int{12, 3, 7}, got.IDs())

	built, err := s.BuiltAt()
	require.NoError(t, err)
	assert.False(t, built.IsZero())
}

func TestPutCorpusReplaces(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutCorpus(sampleCorpus(t)))
	smaller, err := corpus.FromTokens([][]string{{"only"}})
	require.NoError(t, err)
	require.NoError(t, s.PutCorpus(smaller))

	got, err := s.Corpus()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestRankedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s, err := Open(path, false)
	require.NoError(t, err)

	idx, err := index.BuildRanked(sampleCorpus(t), index.Params{K1: 1.2, B: 0.5})
	require.NoError(t, err)
	require.NoError(t, s.PutRanked(idx))
	require.NoError(t, s.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer ro.Close()
	got, err := ro.Ranked()
	require.NoError(t, err)

	assert.Equal(t, idx.Terms(), got.Terms())
	assert.Equal(t, idx.IDF(), got.IDF())
	assert.Equal(t, idx.TFIDF(), got.TFIDF())
	assert.Equal(t, idx.BM25(), got.BM25())
	assert.Equal(t, idx.DocIDs(), got.DocIDs())
	assert.Equal(t, idx.Params(), got.Params())
	assert.InDelta(t, idx.AvgDocLen(), got.AvgDocLen(), 1e-12)
}

func TestMissingData(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Corpus()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
	_, err = s.Ranked()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
}

func TestRankedCorruptMatrix(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	defer s.Close()

	idx, err := index.BuildRanked(sampleCorpus(t), index.DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.PutRanked(idx))

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketModel).Get(keyBM25)
		return tx.Bucket(bucketModel).Put(keyBM25, append([]byte(nil), raw[:len(raw)-3]...))
	}))
	_, err = s.Ranked()
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)

	short := &index.Matrix{Rows: 1, Cols: 1, Data: []float64{1}}
	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketModel).Put(keyBM25, encodeMatrix(short))
	}))
	_, err = s.Ranked()
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

func TestMatrixCodec(t *testing.T) {
	m := &index.Matrix{Rows: 2, Cols: 2, Data: []float64{0, -1.5, 3.25, 1e-300}}
	got, err := decodeMatrix(encodeMatrix(m))
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = decodeMatrix([]byte{1, 2})
	assert.Error(t, err)
}
