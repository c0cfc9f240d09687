package analysis

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidUTF8 is matched by every validation failure.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// InvalidUTF8Error reports the first malformed byte sequence in a buffer.
type InvalidUTF8Error struct {
	Offset int
	Reason string
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("invalid UTF-8 at byte %d: %s", e.Offset, e.Reason)
}

func (e *InvalidUTF8Error) Is(target error) bool {
	return target == ErrInvalidUTF8
}

// Validate checks that text is well-formed UTF-8: no overlong encodings, no
// surrogates, nothing above U+10FFFF, no stray continuation or invalid lead
// bytes, and no sequence truncated by the end of the buffer.
func Validate(text []byte) error {
	for i := 0; i < len(text); {
		b := text[i]
		if b < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return &InvalidUTF8Error{Offset: i, Reason: classifyBadSequence(text[i:])}
		}
		i += size
	}
	return nil
}

// classifyBadSequence explains why the decoder rejected the bytes at the
// start of p. It only runs on the error path.
func classifyBadSequence(p []byte) string {
	b := p[0]
	var want int
	switch {
	case b&0xC0 == 0x80:
		return "unexpected continuation byte"
	case b == 0xC0 || b == 0xC1:
		return "overlong encoding"
	case b&0xE0 == 0xC0:
		want = 2
	case b&0xF0 == 0xE0:
		want = 3
	case b&0xF8 == 0xF0 && b <= 0xF4:
		want = 4
	default:
		return "invalid lead byte"
	}
	for k := 1; k < want; k++ {
		if k >= len(p) {
			return "truncated sequence"
		}
		if p[k]&0xC0 != 0x80 {
			return "missing continuation byte"
		}
	}
	switch {
	case b == 0xE0 && p[1] < 0xA0, b == 0xF0 && p[1] < 0x90:
		return "overlong encoding"
	case b == 0xED && p[1] >= 0xA0:
		return "surrogate code point"
	case b == 0xF4 && p[1] >= 0x90:
		return "code point above U+10FFFF"
	}
	return "malformed sequence"
}
