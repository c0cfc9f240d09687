package analysis

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultTokenizer is the name the registry resolves an empty name to.
const DefaultTokenizer = "ngram"

// Registry manages named tokenizer configurations.
type Registry struct {
	tokenizers map[string]*NGramTokenizer
	mu         sync.RWMutex
}

// NewRegistry creates a Registry with the built-in tokenizers registered:
// unigram through quadgram, all case-insensitive, plus "ngram" for the
// default gram size.
func NewRegistry() *Registry {
	r := &Registry{
		tokenizers: make(map[string]*NGramTokenizer),
	}
	builtin := map[string]int{
		"unigram":        1,
		"bigram":         2,
		"trigram":        3,
		"quadgram":       4,
		DefaultTokenizer: DefaultGram,
	}
	for name, gram := range builtin {
		r.tokenizers[name] = &NGramTokenizer{opts: Options{Gram: gram}}
	}
	return r
}

// Get returns the tokenizer registered under the given name. An empty name
// selects DefaultTokenizer.
func (r *Registry) Get(name string) (*NGramTokenizer, error) {
	if name == "" {
		name = DefaultTokenizer
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokenizers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer: %q", name)
	}
	return t, nil
}

// Register adds a custom tokenizer to the registry.
func (r *Registry) Register(name string, t *NGramTokenizer) error {
	if name == "" {
		return fmt.Errorf("tokenizer name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokenizers[name]; exists {
		return fmt.Errorf("tokenizer already registered: %q", name)
	}
	r.tokenizers[name] = t
	return nil
}

// RegisterArgs builds a tokenizer from host-style arguments and registers it.
func (r *Registry) RegisterArgs(name string, args []string) error {
	opts, err := ParseArgs(args)
	if err != nil {
		return fmt.Errorf("tokenizer %q: %w", name, err)
	}
	t, err := NewNGramTokenizer(opts)
	if err != nil {
		return fmt.Errorf("tokenizer %q: %w", name, err)
	}
	return r.Register(name, t)
}

// Names returns the names of all registered tokenizers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tokenizers))
	for name := range r.tokenizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
