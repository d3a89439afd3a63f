package corpus

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/irkit/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

func TestNewStore(t *testing.T) {
	s, err := NewStore([]Document{
		{ID: 7, Tokens: []string{"cat", "sat", "mat"}},
		{ID: 3, Tokens: []string{"dog"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{7, 3}, s.IDs())
	assert.Equal(t, []int{3, 1}, s.Lengths())
	assert.Equal(t, 2.0, s.AvgLength())

	row, ok := s.Row(3)
	assert.True(t, ok)
	assert.Equal(t, 1, row)

	d, ok := s.Doc(7)
	require.True(t, ok)
	assert.Equal(t, []string{"cat", "sat", "mat"}, d.Tokens)

	_, ok = s.Doc(99)
	assert.False(t, ok)
}

func TestNewStoreCopiesTokens(t *testing.T) {
	tokens := []string{"a", "b"}
	s, err := NewStore([]Document{{ID: 0, Tokens: tokens}})
	require.NoError(t, err)
	tokens[0] = "z"
	d, _ := s.Doc(0)
	assert.Equal(t, "a", d.Tokens[0])
}

func TestNewStoreRejects(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)

	_, err = NewStore([]Document{{ID: -1}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewStore([]Document{{ID: 1}, {ID: 1}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSnippet(t *testing.T) {
	s, err := FromTokens([][]string{{"a", "b", "c", "d"}})
	require.NoError(t, err)
	assert.Equal(t, "a b", s.Snippet(0, 2))
	assert.Equal(t, "a b c d", s.Snippet(0, 30))
	assert.Equal(t, "", s.Snippet(5, 2))
}

func TestReadCSV(t *testing.T) {
	input := "Heading,Article\n" +
		"first,The cat sat on the mat\n" +
		"second,\"A dog sat on a rug\"\n" +
		"short\n" +
		"third,Cats and dogs\n"

	var calls int
	s, err := ReadCSV(context.Background(), strings.NewReader(input), "Article",
		tokenizer.New(tokenizer.Options{StopWords: true}),
		func(processed, total int) { calls++ })
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, 3, calls)
	d, _ := s.Doc(0)
	assert.Equal(t, []string{"cat", "sat", "mat"}, d.Tokens)
	d, _ = s.Doc(1)
	assert.Equal(t, []string{"dog", "sat", "rug"}, d.Tokens)
	d, _ = s.Doc(2)
	assert.Equal(t, []string{"cats", "dogs"}, d.Tokens)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("a,b\n1,2\n"), "Article",
		tokenizer.New(tokenizer.DefaultOptions()), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"b/two.txt":     {Data: []byte("dog sat rug")},
		"a/one.txt":     {Data: []byte("cat sat mat")},
		"a/skip.md":     {Data: []byte("ignored")},
		"c/d/three.txt": {Data: []byte("bird")},
	}
	s, paths, err := LoadFS(context.Background(), fsys, "**/*.txt",
		tokenizer.New(tokenizer.Options{}), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a/one.txt", "b/two.txt", "c/d/three.txt"}, paths)
	d, _ := s.Doc(0)
	assert.Equal(t, []string{"cat", "sat", "mat"}, d.Tokens)
	d, _ = s.Doc(2)
	assert.Equal(t, []string{"bird"}, d.Tokens)
}

func TestLoadFSNoMatches(t *testing.T) {
	_, _, err := LoadFS(context.Background(), fstest.MapFS{}, "**/*.txt",
		tokenizer.New(tokenizer.Options{}), nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}
