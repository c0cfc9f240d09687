package analysis

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	MinGram     = 1 // Essentially a substring search.
	MaxGram     = 4
	DefaultGram = 2
)

// ErrConfig is matched by every tokenizer configuration failure.
var ErrConfig = errors.New("invalid tokenizer configuration")

// Options configures an NGramTokenizer.
type Options struct {
	// Gram is the maximum number of tokens per term, in [MinGram, MaxGram].
	Gram int `json:"gram" mapstructure:"gram"`

	// CaseSensitive disables Unicode case folding of terms.
	CaseSensitive bool `json:"case_sensitive" mapstructure:"case_sensitive"`
}

// DefaultOptions returns Options with the default gram size, case-insensitive.
func DefaultOptions() Options {
	return Options{Gram: DefaultGram}
}

// Validate rejects gram sizes outside [MinGram, MaxGram].
func (o Options) Validate() error {
	if o.Gram < MinGram || o.Gram > MaxGram {
		return fmt.Errorf("%w: %d-gram is out of range, should be in [%d, %d]", ErrConfig, o.Gram, MinGram, MaxGram)
	}
	return nil
}

func (o Options) String() string {
	return fmt.Sprintf("gram=%d case_sensitive=%t", o.Gram, o.CaseSensitive)
}

// ParseArgs parses tokenizer arguments in the form a search host passes them
// at table creation, e.g. ["gram", "3", "case_sensitive"]. Options that are
// not given keep their defaults.
func ParseArgs(args []string) (Options, error) {
	opts := DefaultOptions()
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "gram":
			i++
			if i >= len(args) {
				return Options{}, fmt.Errorf("%w: gram expects one argument, got nothing", ErrConfig)
			}
			gram, err := strconv.Atoi(args[i])
			if err != nil {
				return Options{}, fmt.Errorf("%w: gram %q is not an integer", ErrConfig, args[i])
			}
			opts.Gram = gram
			if err := opts.Validate(); err != nil {
				return Options{}, err
			}
		case "case_sensitive":
			opts.CaseSensitive = true
		default:
			return Options{}, fmt.Errorf("%w: unrecognized option at index %d: %q", ErrConfig, i, args[i])
		}
	}
	return opts, nil
}
