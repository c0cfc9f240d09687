package server

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"GoNgram/internal/analysis"
)

// TermCache keeps recently produced term streams so repeated highlighting of
// the same column text skips segmentation and n-gram generation.
// A nil *TermCache disables caching.
type TermCache struct {
	entries *lru.Cache[cacheKey, cacheEntry]
	metrics *Metrics
}

type cacheKey struct {
	tokenizer string
	hash      xxh3.Uint128
}

type cacheEntry struct {
	textLen int
	terms   []analysis.TermSpan
}

// NewTermCache creates a cache holding up to size term streams. A size of
// zero returns a nil cache.
func NewTermCache(size int, metrics *Metrics) (*TermCache, error) {
	if size == 0 {
		return nil, nil
	}
	entries, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &TermCache{entries: entries, metrics: metrics}, nil
}

// Wrap returns a Tokenizer that serves tok's term streams from the cache.
// name MUST identify tok's configuration uniquely.
func (c *TermCache) Wrap(name string, tok analysis.Tokenizer) analysis.Tokenizer {
	if c == nil {
		return tok
	}
	return &cachedTokenizer{cache: c, name: name, tok: tok}
}

// Len returns the number of cached term streams.
func (c *TermCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

type cachedTokenizer struct {
	cache *TermCache
	name  string
	tok   analysis.Tokenizer
}

func (t *cachedTokenizer) Tokenize(text []byte, emit analysis.EmitFunc) error {
	key := cacheKey{tokenizer: t.name, hash: xxh3.Hash128(text)}
	if e, ok := t.cache.entries.Get(key); ok && e.textLen == len(text) {
		t.cache.metrics.CacheHit()
		return replay(e.terms, emit)
	}
	t.cache.metrics.CacheMiss()

	var terms []analysis.TermSpan
	err := t.tok.Tokenize(text, func(term analysis.TermSpan) error {
		terms = append(terms, term)
		return nil
	})
	if err != nil {
		return err
	}
	t.cache.entries.Add(key, cacheEntry{textLen: len(text), terms: terms})
	return replay(terms, emit)
}

func replay(terms []analysis.TermSpan, emit analysis.EmitFunc) error {
	for _, term := range terms {
		if err := emit(term); err != nil {
			if errors.Is(err, analysis.ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
