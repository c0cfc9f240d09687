package analysis

import "errors"

// ErrStop is returned by an EmitFunc to end a scan early. Scans that stop on
// ErrStop report success to their caller.
var ErrStop = errors.New("stop emission")

// Token is one user-perceived character of the source text.
type Token struct {
	Text      string
	Category  Category
	Position  int
	StartByte int
	EndByte   int
}

// TermSpan is a single search term produced by the n-gram generator.
// StartByte and EndByte always refer to the source buffer, even when case
// folding changed the length of Text.
type TermSpan struct {
	Text      string
	StartByte int
	EndByte   int
}

// EmitFunc receives terms in order. Returning ErrStop ends the scan cleanly;
// any other error ends it and is returned unchanged.
type EmitFunc func(term TermSpan) error

// Tokenizer turns text into an ordered stream of terms.
// Implementations MUST be safe for concurrent use.
type Tokenizer interface {
	Tokenize(text []byte, emit EmitFunc) error
}
