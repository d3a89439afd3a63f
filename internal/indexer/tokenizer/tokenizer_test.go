package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeDefault(t *testing.T) {
	tok := New(DefaultOptions())
	got := tok.Analyze("The Cats were RUNNING, quickly!")
	assert.Equal(t, []string{"cat", "runn", "quick"}, got)
}

func TestAnalyzeDeletesPunctuation(t *testing.T) {
	tok := New(Options{})
	got := tok.Analyze("Don't re-index the café's U.S. data\tfeed")
	assert.Equal(t, []string{"dont", "reindex", "the", "cafs", "us", "data", "feed"}, got)
}

func TestAnalyzeWithoutStemming(t *testing.T) {
	tok := New(Options{StopWords: true})
	got := tok.Analyze("the cat sat on the mat")
	assert.Equal(t, []string{"cat", "sat", "mat"}, got)
}

func TestAnalyzeKeepsStopWordsWhenDisabled(t *testing.T) {
	tok := New(Options{})
	got := tok.Analyze("to be or not")
	assert.Equal(t, []string{"to", "be", "or", "not"}, got)
}

func TestAnalyzeMinLength(t *testing.T) {
	tok := New(Options{MinLength: 2})
	got := tok.Analyze("a b cd efg")
	assert.Equal(t, []string{"cd", "efg"}, got)
}

func TestAnalyzeEmpty(t *testing.T) {
	tok := New(DefaultOptions())
	assert.Empty(t, tok.Analyze(""))
	assert.Empty(t, tok.Analyze("   ,,, !!"))
}

func TestAnalyzerFunc(t *testing.T) {
	var a Analyzer = AnalyzerFunc(strings.Fields)
	assert.Equal(t, []string{"x", "y"}, a.Analyze("x y"))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"relational": "relate",
		"studies":    "study",
		"jumping":    "jump",
		"dogs":       "dog",
		"class":      "class",
		"is":         "is",
	}
	for in, want := range tests {
		assert.Equal(t, want, stem(in), in)
	}
}
