package analysis

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// folderPool hands out case folders; a cases.Caser carries transform state
// and must not be shared between goroutines.
var folderPool = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// NGramTokenizer expands segmented text into overlapping n-gram terms.
// Runs of Other tokens produce n-grams of up to Gram tokens; atomic-script
// tokens (Han, Kana, Hangul, symbols) always produce unigrams; separators
// produce nothing and split the text into independent runs.
//
// An NGramTokenizer is immutable and safe for concurrent use.
type NGramTokenizer struct {
	opts Options
}

// NewNGramTokenizer creates a tokenizer, rejecting invalid options.
func NewNGramTokenizer(opts Options) (*NGramTokenizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &NGramTokenizer{opts: opts}, nil
}

// Options returns the tokenizer's configuration.
func (t *NGramTokenizer) Options() Options {
	return t.opts
}

// Tokenize validates and segments text, then emits its terms in order.
// Invalid UTF-8 is reported before any term is emitted.
func (t *NGramTokenizer) Tokenize(text []byte, emit EmitFunc) error {
	tokens, err := Segment(text)
	if err != nil {
		return err
	}
	return t.Generate(tokens, emit)
}

// Terms collects the complete term stream of text.
func (t *NGramTokenizer) Terms(text []byte) ([]TermSpan, error) {
	var terms []TermSpan
	err := t.Tokenize(text, func(term TermSpan) error {
		terms = append(terms, term)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return terms, nil
}

// Generate emits the terms of an already segmented token sequence.
func (t *NGramTokenizer) Generate(tokens []Token, emit EmitFunc) error {
	var folder *cases.Caser
	if !t.opts.CaseSensitive {
		folder = folderPool.Get().(*cases.Caser)
		defer folderPool.Put(folder)
	}

	var b strings.Builder
	emitWindow := func(w []Token) error {
		b.Reset()
		for _, tok := range w {
			b.WriteString(tok.Text)
		}
		text := b.String()
		if folder != nil {
			text = folder.String(text)
		}
		return emit(TermSpan{
			Text:      text,
			StartByte: w[0].StartByte,
			EndByte:   w[len(w)-1].EndByte,
		})
	}

	err := forEachRun(tokens, func(run []Token) error {
		sc := newWindowScanner(run, t.opts.Gram)
		for {
			w, ok := sc.scan()
			if !ok {
				return nil
			}
			if w.prefixes {
				for n := 1; n < len(w.tokens); n++ {
					if err := emitWindow(w.tokens[:n]); err != nil {
						return err
					}
				}
			}
			if err := emitWindow(w.tokens); err != nil {
				return err
			}
		}
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// forEachRun calls fn for every maximal run of non-separator tokens.
func forEachRun(tokens []Token, fn func(run []Token) error) error {
	start := -1
	for i, tok := range tokens {
		if tok.Category.Separator() {
			if start >= 0 {
				if err := fn(tokens[start:i]); err != nil {
					return err
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		return fn(tokens[start:])
	}
	return nil
}

// window is one term candidate produced by the scanner.
type window struct {
	tokens []Token
	// prefixes asks for every proper prefix of tokens to be emitted first.
	prefixes bool
}

// windowScanner walks a separator-free run and yields one window per start
// index. Its only state between steps is the start cursor and whether the
// previous window was a lone atomic token.
type windowScanner struct {
	run  []Token
	gram int

	// tailCovered is set when the last gram tokens of the run share one
	// category: the maximal window ending at the run's end was already
	// produced, so growable windows cut short by the end are dropped.
	tailCovered bool

	next       int
	prevAtomic bool
}

func newWindowScanner(run []Token, gram int) *windowScanner {
	return &windowScanner{
		run:         run,
		gram:        gram,
		tailCovered: sameCategory(run, gram),
	}
}

func (s *windowScanner) scan() (window, bool) {
	for s.next < len(s.run) {
		i := s.next
		s.next++

		tokens, ok := s.grow(i)
		if !ok {
			continue
		}
		w := window{
			tokens:   tokens,
			prefixes: s.prevAtomic && tokens[0].Category == CategoryOther,
		}
		s.prevAtomic = len(tokens) == 1 && tokens[0].Category.Atomic()
		return w, true
	}
	return window{}, false
}

// grow builds the window starting at run[i]. It reports false when the tail
// rule suppresses the window.
func (s *windowScanner) grow(i int) ([]Token, bool) {
	first := s.run[i].Category
	end := i + 1
	for end-i < s.gram {
		if end == len(s.run) {
			// Atomic windows are complete at length one; only a window that
			// could still have grown is a partial tail.
			if first == CategoryOther && s.tailCovered {
				return nil, false
			}
			break
		}
		next := s.run[end].Category
		if next != CategoryOther || next != first {
			break
		}
		end++
	}
	return s.run[i:end], true
}

func sameCategory(run []Token, n int) bool {
	if len(run) < n {
		return false
	}
	tail := run[len(run)-n:]
	for _, tok := range tail[1:] {
		if tok.Category != tail[0].Category {
			return false
		}
	}
	return true
}
