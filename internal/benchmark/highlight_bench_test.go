package benchmark

import (
	"testing"

	"GoNgram/internal/highlight"
	"GoNgram/internal/testutil"
)

// spreadInstances returns n instances of one column, two terms long and
// eight terms apart.
func spreadInstances(n int) highlight.InstanceSlice {
	insts := make(highlight.InstanceSlice, n)
	for i := range insts {
		insts[i] = highlight.PhraseInstance{Offset: i * 8, Length: 2}
	}
	return insts
}

func BenchmarkCoalesce_1K(b *testing.B) {
	src := spreadInstances(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = highlight.Spans(src, 0)
	}
}

func BenchmarkCoalesce_Overlapping(b *testing.B) {
	src := make(highlight.InstanceSlice, 1000)
	for i := range src {
		src[i] = highlight.PhraseInstance{Offset: i, Length: 3}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = highlight.Spans(src, 0)
	}
}

func BenchmarkHighlight_Long(b *testing.B) {
	tok := testutil.MustTokenizer(b, 2, false)
	text := []byte(testutil.LongText(16 << 10))
	src := spreadInstances(500)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = highlight.Highlight(tok, 0, src, text, "<b>", "</b>")
	}
}

func BenchmarkHighlight_EarlyStop(b *testing.B) {
	tok := testutil.MustTokenizer(b, 2, false)
	text := []byte(testutil.LongText(16 << 10))
	src := highlight.InstanceSlice{{Offset: 3, Length: 2}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = highlight.Highlight(tok, 0, src, text, "<b>", "</b>")
	}
}
