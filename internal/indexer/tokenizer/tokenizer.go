// Package tokenizer turns raw text into the normalized token sequences the
// indexes are built from. It lower-cases input, deletes punctuation and
// non-ASCII characters, splits on whitespace, optionally removes stop-words
// and applies a suffix-based stemmer.
package tokenizer

import (
	"strings"
	"unicode"
)

// stopWords is a short English stop list; queries and documents drop the
// same words.
var stopWords = func() map[string]struct{} {
	const list = `a about after an and are as at be been before being but by
		can do each for from had has have he her him his i if in into is it its
		me my no not of on or our she so than that the their them then there
		these they this those to was we were what when where which who will
		with you your`
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}()

// Analyzer converts text into normalized terms. Documents and phrase or
// ranked queries must go through the same Analyzer.
type Analyzer interface {
	Analyze(text string) []string
}

// AnalyzerFunc adapts a plain function to the Analyzer interface.
type AnalyzerFunc func(text string) []string

func (f AnalyzerFunc) Analyze(text string) []string { return f(text) }

// Options selects the normalization steps.
type Options struct {
	Stem      bool
	StopWords bool
	MinLength int
}

// DefaultOptions stems and removes stop-words.
func DefaultOptions() Options {
	return Options{Stem: true, StopWords: true, MinLength: 1}
}

// Tokenizer is the default Analyzer.
type Tokenizer struct {
	opts Options
}

func New(opts Options) *Tokenizer {
	if opts.MinLength < 1 {
		opts.MinLength = 1
	}
	return &Tokenizer{opts: opts}
}

// Analyze returns the normalized terms of text in order. Characters other
// than ASCII letters, digits and whitespace are deleted, not treated as
// separators, so "don't" becomes "dont" and "café" becomes "caf".
func (t *Tokenizer) Analyze(text string) []string {
	words := strings.Fields(strings.Map(keepASCIIAlnum, strings.ToLower(text)))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < t.opts.MinLength {
			continue
		}
		if t.opts.StopWords {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		if t.opts.Stem {
			word = stem(word)
		}
		if word == "" {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

func keepASCIIAlnum(r rune) rune {
	switch {
	case 'a' <= r && r <= 'z', '0' <= r && r <= '9', unicode.IsSpace(r):
		return r
	}
	return -1
}

// IsStopWord reports whether word is in the built-in English stop list.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

// suffixRules are tried in order; the first suffix that matches and leaves
// at least minLen characters wins.
var suffixRules = []suffixRule{
	{"ational", "ate", 2}, {"tional", "tion", 2}, {"encies", "ence", 2},
	{"ances", "ance", 2}, {"ments", "ment", 2}, {"izing", "ize", 2},
	{"ating", "ate", 2}, {"iness", "y", 2}, {"ously", "ous", 2},
	{"ively", "ive", 2}, {"eness", "ene", 2},
	{"tion", "t", 3}, {"sion", "s", 3}, {"ying", "y", 2}, {"ling", "l", 3},
	{"ies", "y", 2}, {"ing", "", 3}, {"ers", "er", 2}, {"est", "", 3},
	{"ful", "", 3}, {"ous", "", 3}, {"ess", "", 3}, {"ble", "", 3},
	{"ed", "", 3}, {"er", "", 3}, {"ly", "", 3}, {"es", "", 3},
	{"ss", "ss", 2}, {"s", "", 3},
}

func stem(word string) string {
	for _, r := range suffixRules {
		base, ok := strings.CutSuffix(word, r.suffix)
		if ok && len(base)+len(r.replacement) >= r.minLen {
			return base + r.replacement
		}
	}
	return word
}
