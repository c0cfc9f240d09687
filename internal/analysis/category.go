package analysis

import "unicode"

// Category classifies a token by the script or character class of its first
// code point. It controls how the n-gram generator combines tokens.
type Category uint8

const (
	// CategoryOther covers letters, digits, marks and connector punctuation.
	// Runs of Other tokens combine into multi-character terms.
	CategoryOther Category = iota

	// Atomic categories: every token stands alone as a unigram.
	CategoryHan
	CategoryHiragana
	CategoryKatakana
	CategoryHangul
	CategorySymbol

	// Separator categories are kept by the segmenter so byte ranges stay
	// contiguous, but never contribute to a term and always break a window.
	CategorySpace
	CategoryPunct
)

var categoryNames = [...]string{
	CategoryOther:    "other",
	CategoryHan:      "han",
	CategoryHiragana: "hiragana",
	CategoryKatakana: "katakana",
	CategoryHangul:   "hangul",
	CategorySymbol:   "symbol",
	CategorySpace:    "space",
	CategoryPunct:    "punct",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Atomic reports whether tokens of this category never combine with neighbours.
func (c Category) Atomic() bool {
	return c >= CategoryHan && c <= CategorySymbol
}

// Separator reports whether tokens of this category are dropped from term output.
func (c Category) Separator() bool {
	return c == CategorySpace || c == CategoryPunct
}

// Classify returns the category of a single code point.
func Classify(r rune) Category {
	switch {
	case unicode.Is(unicode.Han, r):
		return CategoryHan
	case unicode.Is(unicode.Hiragana, r):
		return CategoryHiragana
	case unicode.Is(unicode.Katakana, r):
		return CategoryKatakana
	case unicode.Is(unicode.Hangul, r):
		return CategoryHangul
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), unicode.Is(unicode.Pc, r):
		return CategoryOther
	case unicode.IsSpace(r), unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		return CategorySpace
	case unicode.IsPunct(r):
		return CategoryPunct
	case unicode.IsSymbol(r):
		return CategorySymbol
	default:
		// Unassigned and private-use code points still index as characters.
		return CategoryOther
	}
}
