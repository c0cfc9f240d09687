package analysis

import (
	"errors"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Segment validates text and splits it into one token per extended grapheme
// cluster. Token byte ranges are contiguous and cover the whole input;
// whitespace and punctuation come back as separator-category tokens rather
// than being dropped.
func Segment(text []byte) ([]Token, error) {
	var tokens []Token
	err := SegmentFunc(text, func(tok Token) error {
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// SegmentFunc is the streaming form of Segment. The whole buffer is validated
// before fn sees the first token. Returning ErrStop from fn ends the scan and
// SegmentFunc returns nil.
func SegmentFunc(text []byte, fn func(tok Token) error) error {
	if err := Validate(text); err != nil {
		return err
	}

	var cluster []byte
	rest := text
	state := -1
	offset := 0
	for pos := 0; len(rest) > 0; pos++ {
		cluster, rest, _, state = uniseg.FirstGraphemeCluster(rest, state)
		r, _ := utf8.DecodeRune(cluster)

		tok := Token{
			Text:      string(cluster),
			Category:  Classify(r),
			Position:  pos,
			StartByte: offset,
			EndByte:   offset + len(cluster),
		}
		offset = tok.EndByte

		if err := fn(tok); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
