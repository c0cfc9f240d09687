package highlight

import (
	"strings"

	"GoNgram/internal/analysis"
)

// Highlight re-tokenizes the text of column with tok and wraps every
// coalesced span of src in openTag and closeTag. Term indexes in src refer
// to the positions tok emits, so tok must be the tokenizer the host indexed
// the column with.
//
// Markers are inserted in document order and never overlap: when n-gram byte
// ranges overlap, a marker is moved forward to the end of the previous one.
// A span running past the last term is closed at the end of the text.
// Errors from the host or the tokenizer are returned unchanged.
func Highlight(tok analysis.Tokenizer, column int, src Instances, text []byte, openTag, closeTag string) (string, error) {
	c, err := NewCoalescer(src, column)
	if err != nil {
		return "", err
	}
	hasSpan := c.Next()
	if err := c.Err(); err != nil {
		return "", err
	}

	m := marker{text: text}
	m.b.Grow(len(text))

	pos := 0
	err = tok.Tokenize(text, func(term analysis.TermSpan) error {
		i := pos
		pos++
		if !hasSpan {
			return analysis.ErrStop
		}

		span := c.Span()
		if !m.opened && i >= span.First {
			m.insert(term.StartByte, openTag)
			m.opened = true
		}
		if m.opened && i >= span.Last {
			m.insert(term.EndByte, closeTag)
			m.opened = false

			hasSpan = c.Next()
			if err := c.Err(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if m.opened {
		m.insert(len(text), closeTag)
	}
	return m.finish(), nil
}

// marker copies text into b, inserting markers at monotonic byte offsets.
type marker struct {
	text   []byte
	b      strings.Builder
	copied int
	opened bool
}

func (m *marker) insert(at int, s string) {
	at = min(max(at, m.copied), len(m.text))
	m.b.Write(m.text[m.copied:at])
	m.b.WriteString(s)
	m.copied = at
}

func (m *marker) finish() string {
	m.b.Write(m.text[m.copied:])
	return m.b.String()
}
