package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/cases"
)

func mustTokenizer(t testing.TB, gram int, caseSensitive bool) *NGramTokenizer {
	t.Helper()
	tok, err := NewNGramTokenizer(Options{Gram: gram, CaseSensitive: caseSensitive})
	require.NoError(t, err)
	return tok
}

func termTexts(terms []TermSpan) []string {
	if len(terms) == 0 {
		return nil
	}
	texts := make([]string, len(terms))
	for i, t := range terms {
		texts[i] = t.Text
	}
	return texts
}

func TestNewNGramTokenizer_GramRange(t *testing.T) {
	for gram := MinGram; gram <= MaxGram; gram++ {
		_, err := NewNGramTokenizer(Options{Gram: gram})
		assert.NoError(t, err, "gram %d", gram)
	}
	for _, gram := range []int{-1, 0, 5, 100} {
		_, err := NewNGramTokenizer(Options{Gram: gram})
		assert.True(t, errors.Is(err, ErrConfig), "gram %d", gram)
	}
}

func TestNGramTokenizer_Terms(t *testing.T) {
	tests := []struct {
		name          string
		gram          int
		caseSensitive bool
		input         string
		want          []string
	}{
		{"empty", 2, false, "", nil},
		{"separators only", 2, false, " ,\t!", nil},
		{"bigram word", 2, false, "hello", []string{"he", "el", "ll", "lo"}},
		{"trigram word", 3, false, "hello", []string{"hel", "ell", "llo"}},
		{"unigram word", 1, false, "abc", []string{"a", "b", "c"}},
		{"short word keeps partial tail", 3, false, "ab", []string{"ab", "b"}},
		{"single char", 2, false, "a", []string{"a"}},
		{"lowercased", 2, false, "HeLLo", []string{"he", "el", "ll", "lo"}},
		{"case sensitive", 2, true, "HeLLo", []string{"He", "eL", "LL", "Lo"}},
		{"words are independent runs", 2, false, "abc def", []string{"ab", "bc", "de", "ef"}},
		{"tail rule applies per word", 2, false, "hello world", []string{"he", "el", "ll", "lo", "wo", "or", "rl", "ld"}},
		{"punctuation separates", 2, false, "Hello, World!", []string{"he", "el", "ll", "lo", "wo", "or", "rl", "ld"}},
		{"han unigrams", 2, false, "漢字", []string{"漢", "字"}},
		{"mixed kana", 3, false, "日本語テキスト", []string{"日", "本", "語", "テ", "キ", "ス", "ト"}},
		{"hangul", 3, false, "한국어", []string{"한", "국", "어"}},
		{"other then atomic", 2, true, "AB漢字", []string{"AB", "B", "漢", "字"}},
		{"atomic then other", 2, true, "世界Hello", []string{"世", "界", "H", "He", "el", "ll", "lo"}},
		{"atomic then other trigram", 3, false, "漢abc", []string{"漢", "a", "ab", "abc"}},
		{"other between atomics", 2, false, "漢ab字", []string{"漢", "a", "ab", "b", "字"}},
		{"digits combine", 2, false, "2024", []string{"20", "02", "24"}},
		{"symbols are atomic", 2, false, "a😀b", []string{"a", "😀", "b"}},
		{"combining mark stays in token", 2, false, "ét", []string{"ét"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := mustTokenizer(t, tt.gram, tt.caseSensitive)
			terms, err := tok.Terms([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, termTexts(terms))
		})
	}
}

func TestNGramTokenizer_Offsets(t *testing.T) {
	tok := mustTokenizer(t, 2, false)
	terms, err := tok.Terms([]byte("世界Hello"))
	require.NoError(t, err)

	want := []TermSpan{
		{Text: "世", StartByte: 0, EndByte: 3},
		{Text: "界", StartByte: 3, EndByte: 6},
		{Text: "h", StartByte: 6, EndByte: 7},
		{Text: "he", StartByte: 6, EndByte: 8},
		{Text: "el", StartByte: 7, EndByte: 9},
		{Text: "ll", StartByte: 8, EndByte: 10},
		{Text: "lo", StartByte: 9, EndByte: 11},
	}
	assert.Equal(t, want, terms)
}

func TestNGramTokenizer_ScriptTransitionExactMultiset(t *testing.T) {
	tok := mustTokenizer(t, 2, true)
	terms, err := tok.Terms([]byte("AB漢字"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []TermSpan{
		{Text: "AB", StartByte: 0, EndByte: 2},
		{Text: "B", StartByte: 1, EndByte: 2},
		{Text: "漢", StartByte: 2, EndByte: 5},
		{Text: "字", StartByte: 5, EndByte: 8},
	}, terms)
}

func TestNGramTokenizer_PrefixesEmittedOnce(t *testing.T) {
	tok := mustTokenizer(t, 4, false)
	terms, err := tok.Terms([]byte("漢abcd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"漢", "a", "ab", "abc", "abcd"}, termTexts(terms))
}

func TestNGramTokenizer_FullWindowCount(t *testing.T) {
	const input = "abcdefghij"
	for gram := MinGram; gram <= MaxGram; gram++ {
		tok := mustTokenizer(t, gram, false)
		terms, err := tok.Terms([]byte(input))
		require.NoError(t, err)

		full := 0
		for _, term := range terms {
			if term.EndByte-term.StartByte == gram {
				full++
			}
			assert.Greater(t, len(term.Text), 0)
		}
		assert.Equal(t, len(input)-gram+1, full, "gram %d", gram)
		// Every partial tail is covered by the final full window.
		assert.Equal(t, full, len(terms), "gram %d", gram)
	}
}

func TestNGramTokenizer_AtomicOnly(t *testing.T) {
	inputs := []string{"漢字仮名交", "ひらがな", "カタカナ", "한국어문장"}
	for _, in := range inputs {
		tokens, err := Segment([]byte(in))
		require.NoError(t, err)

		for gram := MinGram; gram <= MaxGram; gram++ {
			tok := mustTokenizer(t, gram, false)
			terms, err := tok.Terms([]byte(in))
			require.NoError(t, err)
			require.Len(t, terms, len(tokens), "%q gram %d", in, gram)
			for i, term := range terms {
				assert.Equal(t, tokens[i].Text, term.Text)
				assert.Equal(t, tokens[i].StartByte, term.StartByte)
				assert.Equal(t, tokens[i].EndByte, term.EndByte)
			}
		}
	}
}

func TestNGramTokenizer_FoldMatchesCaseSensitive(t *testing.T) {
	inputs := []string{
		"Hello World",
		"ΣΊΣΥΦΟΣ ÄRGER",
		"Straße MASSE",
		"İstanbul ǅemal",
		"AB漢字Cd",
	}
	folder := cases.Fold()

	for _, in := range inputs {
		for gram := MinGram; gram <= MaxGram; gram++ {
			sensitive, err := mustTokenizer(t, gram, true).Terms([]byte(in))
			require.NoError(t, err)
			folded, err := mustTokenizer(t, gram, false).Terms([]byte(in))
			require.NoError(t, err)

			require.Len(t, folded, len(sensitive))
			for i := range sensitive {
				assert.Equal(t, folder.String(sensitive[i].Text), folded[i].Text)
				assert.Equal(t, sensitive[i].StartByte, folded[i].StartByte)
				assert.Equal(t, sensitive[i].EndByte, folded[i].EndByte)
			}
		}
	}
}

func TestNGramTokenizer_FoldChangesLengthNotOffsets(t *testing.T) {
	tok := mustTokenizer(t, 1, false)
	terms, err := tok.Terms([]byte("aß"))
	require.NoError(t, err)
	assert.Equal(t, []TermSpan{
		{Text: "a", StartByte: 0, EndByte: 1},
		{Text: "ss", StartByte: 1, EndByte: 3},
	}, terms)
}

func TestNGramTokenizer_InvalidUTF8(t *testing.T) {
	tok := mustTokenizer(t, 2, false)
	calls := 0
	err := tok.Tokenize([]byte("valid prefix \x80"), func(TermSpan) error {
		calls++
		return nil
	})
	assert.True(t, errors.Is(err, ErrInvalidUTF8))
	assert.Zero(t, calls)
}

func TestNGramTokenizer_Stop(t *testing.T) {
	tok := mustTokenizer(t, 2, false)
	var got []string
	err := tok.Tokenize([]byte("abcdef ghij"), func(term TermSpan) error {
		got = append(got, term.Text)
		if len(got) == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "bc"}, got)
}

func TestNGramTokenizer_StopDuringPrefixes(t *testing.T) {
	tok := mustTokenizer(t, 3, false)
	var got []string
	err := tok.Tokenize([]byte("漢abc"), func(term TermSpan) error {
		got = append(got, term.Text)
		if term.Text == "a" {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"漢", "a"}, got)
}

func TestNGramTokenizer_CallbackErrorPropagates(t *testing.T) {
	tok := mustTokenizer(t, 2, false)
	boom := errors.New("host refused term")
	calls := 0
	err := tok.Tokenize([]byte("hello"), func(TermSpan) error {
		calls++
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestNGramTokenizer_ConcurrentUse(t *testing.T) {
	tok := mustTokenizer(t, 2, false)
	want, err := tok.Terms([]byte("Concurrent ÄÖÜ Tokenize 漢字"))
	require.NoError(t, err)

	done := make(chan []TermSpan)
	for i := 0; i < 8; i++ {
		go func() {
			got, _ := tok.Terms([]byte("Concurrent ÄÖÜ Tokenize 漢字"))
			done <- got
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}
