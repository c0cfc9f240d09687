package testutil

import (
	"strings"
	"testing"

	"GoNgram/internal/analysis"
	"GoNgram/internal/highlight"
)

// Sample is a named test document.
type Sample struct {
	Name string
	Text string
}

// SampleTexts returns short documents covering the character categories the
// tokenizer treats differently.
func SampleTexts() []Sample {
	return []Sample{
		{Name: "latin", Text: "Full-text search is a technique for searching documents"},
		{Name: "cjk", Text: "東京は日本の首都です。カタカナとひらがな"},
		{Name: "hangul", Text: "한국어 텍스트 검색"},
		{Name: "mixed", Text: "世界Hello 漢ab字 テストTest"},
		{Name: "emoji", Text: "ship it 🚀🚀 now 👍🏽"},
		{Name: "combining", Text: "café naïve"},
		{Name: "folding", Text: "Straße GROSS ǅemal"},
		{Name: "digits", Text: "BM25 v1.2.3 ranks top_k=10"},
	}
}

// LongText returns a document of roughly n bytes built by repeating the
// sample texts.
func LongText(n int) string {
	samples := SampleTexts()
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(samples[i%len(samples)].Text)
	}
	return b.String()
}

// Terms runs tok over text and returns every emitted term.
func Terms(t testing.TB, tok analysis.Tokenizer, text string) []analysis.TermSpan {
	t.Helper()
	var terms []analysis.TermSpan
	err := tok.Tokenize([]byte(text), func(term analysis.TermSpan) error {
		terms = append(terms, term)
		return nil
	})
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", text, err)
	}
	return terms
}

// MustTokenizer builds an n-gram tokenizer or fails the test.
func MustTokenizer(t testing.TB, gram int, caseSensitive bool) *analysis.NGramTokenizer {
	t.Helper()
	tok, err := analysis.NewNGramTokenizer(analysis.Options{Gram: gram, CaseSensitive: caseSensitive})
	if err != nil {
		t.Fatalf("NewNGramTokenizer: %v", err)
	}
	return tok
}

// AssertTermRanges checks that every term lies inside text on character
// boundaries with a non-empty range.
func AssertTermRanges(t testing.TB, text string, terms []analysis.TermSpan) {
	t.Helper()
	for i, term := range terms {
		if term.StartByte < 0 || term.EndByte > len(text) || term.StartByte >= term.EndByte {
			t.Errorf("term %d %q: bad range [%d,%d) for %d-byte text", i, term.Text, term.StartByte, term.EndByte, len(text))
		}
	}
}

// AssertOrderedSpans checks that spans are well formed, strictly increasing
// and disjoint.
func AssertOrderedSpans(t testing.TB, spans []highlight.Span) {
	t.Helper()
	for i, s := range spans {
		if s.First > s.Last {
			t.Errorf("span %d: First %d > Last %d", i, s.First, s.Last)
		}
		if i > 0 && s.First <= spans[i-1].Last {
			t.Errorf("span %d %+v overlaps span %d %+v", i, s, i-1, spans[i-1])
		}
	}
}
