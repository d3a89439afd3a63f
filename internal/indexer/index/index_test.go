package index

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

func scenarioStore(t testing.TB) *corpus.Store {
	t.Helper()
	s, err := corpus.FromTokens([][]string{
		{"cat", "sat", "mat"},
		{"dog", "sat", "rug"},
	})
	require.NoError(t, err)
	return s
}

func sampleStore(t testing.TB) *corpus.Store {
	t.Helper()
	s, err := corpus.NewStore([]corpus.Document{
		{ID: 10, Tokens: []string{"to", "be", "or", "not", "to", "be"}},
		{ID: 4, Tokens: []string{"be", "quick"}},
		{ID: 7, Tokens: []string{"quick", "brown", "fox", "quick", "fox"}},
		{ID: 2, Tokens: []string{"not", "a", "fox"}},
		{ID: 0, Tokens: []string{}},
	})
	require.NoError(t, err)
	return s
}

func TestBuildBooleanScenario(t *testing.T) {
	idx, err := BuildBoolean(scenarioStore(t))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, idx.Postings("sat"))
	assert.Equal(t, []int{0}, idx.Postings("cat"))
	assert.Nil(t, idx.Postings("bird"))
	assert.Equal(t, []string{"cat", "dog", "mat", "rug", "sat"}, idx.Terms())
	assert.Equal(t, 2, idx.DocCount())
}

func TestBooleanMembershipInvariant(t *testing.T) {
	store := sampleStore(t)
	idx, err := BuildBoolean(store)
	require.NoError(t, err)

	for _, term := range idx.Terms() {
		ids := idx.Postings(term)
		for _, doc := range store.Docs() {
			indexed := slices.Contains(ids, doc.ID)
			assert.Equal(t, containsTerm(doc.Tokens, term), indexed, "term %q doc %d", term, doc.ID)
		}
	}
	assert.Equal(t, []int{2, 7}, idx.Postings("fox"))
	assert.Equal(t, []int{4, 10}, idx.Postings("be"))
}

func TestBooleanPostingsReturnsCopy(t *testing.T) {
	idx, err := BuildBoolean(scenarioStore(t))
	require.NoError(t, err)
	ids := idx.Postings("sat")
	ids[0] = 99
	assert.Equal(t, []int{0, 1}, idx.Postings("sat"))
}

func TestBuildPositionalScenario(t *testing.T) {
	idx, err := BuildPositional(scenarioStore(t))
	require.NoError(t, err)

	assert.Equal(t, []int{1}, idx.Positions("sat", 0))
	assert.Equal(t, []int{1}, idx.Positions("sat", 1))
	assert.Nil(t, idx.Positions("cat", 1))
	assert.Equal(t, []int{0, 1}, idx.Docs("sat"))
	assert.Nil(t, idx.Docs("bird"))
}

func TestPositionalRoundTrip(t *testing.T) {
	store := sampleStore(t)
	idx, err := BuildPositional(store)
	require.NoError(t, err)

	for _, doc := range store.Docs() {
		for _, term := range idx.Terms() {
			var want []int
			for i, tok := range doc.Tokens {
				if tok == term {
					want = append(want, i)
				}
			}
			assert.Equal(t, want, idx.Positions(term, doc.ID), "term %q doc %d", term, doc.ID)
		}
	}
	for _, e := range idx.Snapshot() {
		for _, p := range e.Postings {
			assert.NotEmpty(t, p.Positions)
		}
	}
	assert.Equal(t, []int{0, 4}, idx.Positions("to", 10))
	assert.Equal(t, []int{0, 3}, idx.Positions("quick", 7))
}

func TestBooleanFromPositionalMatchesBuild(t *testing.T) {
	store := sampleStore(t)
	pos, err := BuildPositional(store)
	require.NoError(t, err)
	direct, err := BuildBoolean(store)
	require.NoError(t, err)

	derived := BooleanFromPositional(pos)
	require.Equal(t, direct.Terms(), derived.Terms())
	for _, term := range direct.Terms() {
		assert.Equal(t, direct.Postings(term), derived.Postings(term))
	}
}

func TestBuildIsWorkerIndependent(t *testing.T) {
	docs := make([][]string, 0, 57)
	vocab := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	for i := 0; i < 57; i++ {
		tokens := make([]string, 0, i%9+1)
		for j := 0; j <= i%9; j++ {
			tokens = append(tokens, vocab[(i*j+j)%len(vocab)])
		}
		docs = append(docs, tokens)
	}
	store, err := corpus.FromTokens(docs)
	require.NoError(t, err)

	seqPos, err := BuildPositional(store, WithWorkers(1))
	require.NoError(t, err)
	seqBool, err := BuildBoolean(store, WithWorkers(1))
	require.NoError(t, err)
	seqRanked, err := BuildRanked(store, DefaultParams(), WithWorkers(1))
	require.NoError(t, err)

	for _, workers := range []int{2, 5, 8, 100} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			pos, err := BuildPositional(store, WithWorkers(workers))
			require.NoError(t, err)
			assert.Equal(t, seqPos.Snapshot(), pos.Snapshot())

			b, err := BuildBoolean(store, WithWorkers(workers))
			require.NoError(t, err)
			for _, term := range seqBool.Terms() {
				assert.Equal(t, seqBool.Postings(term), b.Postings(term))
			}

			r, err := BuildRanked(store, DefaultParams(), WithWorkers(workers))
			require.NoError(t, err)
			assert.Equal(t, seqRanked.TFIDF().Data, r.TFIDF().Data)
			assert.Equal(t, seqRanked.BM25().Data, r.BM25().Data)
		})
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := BuildBoolean(nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	_, err = BuildPositional(nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	_, err = BuildRanked(nil, DefaultParams())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)

	blank, err := corpus.FromTokens([][]string{{}, {}})
	require.NoError(t, err)
	_, err = BuildBoolean(blank)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	_, err = BuildPositional(blank)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
	_, err = BuildRanked(blank, DefaultParams())
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}

func TestBuildRankedShape(t *testing.T) {
	store := sampleStore(t)
	r, err := BuildRanked(store, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	assert.Equal(t, store.Len(), r.TFIDF().Rows)
	assert.Equal(t, store.Len(), r.BM25().Rows)
	assert.Equal(t, len(r.Terms()), r.TFIDF().Cols)
	assert.Equal(t, len(r.Terms()), len(r.IDF()))
	assert.Equal(t, store.IDs(), r.DocIDs())

	for term, j := range r.Vocabulary() {
		assert.Equal(t, term, r.Terms()[j])
	}
	assert.Equal(t, []string{"a", "be", "brown", "fox", "not", "or", "quick", "to"}, r.Terms())
}

func TestBuildRankedScenarioWeights(t *testing.T) {
	r, err := BuildRanked(scenarioStore(t), DefaultParams())
	require.NoError(t, err)

	cat, ok := r.Column("cat")
	require.True(t, ok)
	sat, ok := r.Column("sat")
	require.True(t, ok)

	idfCat := math.Log(3.0/2.0) + 1
	assert.InDelta(t, idfCat, r.IDF()[cat], 1e-12)
	assert.InDelta(t, 1.0, r.IDF()[sat], 1e-12)

	// Equal lengths make the length norm 1, so a single occurrence
	// scores exactly its idf.
	assert.InDelta(t, idfCat, r.BM25().At(0, cat), 1e-12)
	assert.Equal(t, 0.0, r.BM25().At(1, cat))

	norm := math.Sqrt(2*idfCat*idfCat + 1)
	assert.InDelta(t, idfCat/norm, r.TFIDF().At(0, cat), 1e-12)
	assert.InDelta(t, 1/norm, r.TFIDF().At(0, sat), 1e-12)

	var sumSq float64
	for _, w := range r.TFIDF().Row(1) {
		sumSq += w * w
	}
	assert.InDelta(t, 1.0, sumSq, 1e-12)
}

func TestBuildRankedRawFrequency(t *testing.T) {
	store := sampleStore(t)
	params := DefaultParams()
	r, err := BuildRanked(store, params)
	require.NoError(t, err)

	quick, _ := r.Column("quick")
	row, _ := store.Row(7)
	want := BM25Weight(2, r.IDF()[quick], 5, store.AvgLength(), params)
	assert.InDelta(t, want, r.BM25().At(row, quick), 1e-12)

	empty, _ := store.Row(0)
	for _, w := range r.BM25().Row(empty) {
		assert.Equal(t, 0.0, w)
	}
}

func TestSmoothedIDFDecreases(t *testing.T) {
	prev := math.Inf(1)
	for df := 1; df <= 50; df++ {
		idf := SmoothedIDF(50, df)
		assert.Less(t, idf, prev)
		assert.Greater(t, idf, 0.0)
		prev = idf
	}
}

func TestBM25WeightMonotoneInTF(t *testing.T) {
	for _, k1 := range []float64{0, 0.5, 1.2, 1.5, 3} {
		p := Params{K1: k1, B: 0.75}
		prev := 0.0
		for tf := 1; tf <= 100; tf++ {
			w := BM25Weight(float64(tf), 1.7, 12, 9, p)
			assert.GreaterOrEqual(t, w, prev, "k1=%v tf=%d", k1, tf)
			prev = w
		}
	}
	assert.Equal(t, 0.0, BM25Weight(0, 2, 5, 5, DefaultParams()))
}

func TestBM25WeightWithoutSaturation(t *testing.T) {
	p := Params{K1: 0, B: 0.75}
	for tf := 1; tf <= 10000; tf++ {
		assert.Equal(t, 1.7, BM25Weight(float64(tf), 1.7, 12, 9, p), "tf=%d", tf)
	}
}

func TestBuildRankedRejectsBadParams(t *testing.T) {
	_, err := BuildRanked(scenarioStore(t), Params{K1: 1.5, B: 2})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewRankedIndexDimensionMismatch(t *testing.T) {
	r, err := BuildRanked(scenarioStore(t), DefaultParams())
	require.NoError(t, err)

	parts := r.Parts()
	_, err = NewRankedIndex(parts)
	require.NoError(t, err)

	short := parts
	short.IDF = parts.IDF[:len(parts.IDF)-1]
	_, err = NewRankedIndex(short)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	wrongBM25 := parts
	wrongBM25.BM25 = NewMatrix(parts.BM25.Rows, parts.BM25.Cols+1)
	_, err = NewRankedIndex(wrongBM25)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	missing := parts
	missing.TFIDF = nil
	_, err = NewRankedIndex(missing)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, []span{{0, 4}, {4, 7}, {7, 10}}, partition(10, 3))
	assert.Equal(t, []span{{0, 1}, {1, 2}}, partition(2, 8))
	assert.Equal(t, []span{{0, 5}}, partition(5, 0))
}

func containsTerm(tokens []string, term string) bool {
	for _, t := range tokens {
		if t == term {
			return true
		}
	}
	return false
}
