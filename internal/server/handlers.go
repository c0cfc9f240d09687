package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"GoNgram/internal/analysis"
	"GoNgram/internal/highlight"
)

// tokenizerSelector selects the tokenizer of a request: a registered name, or
// inline options layered over the configured default.
type tokenizerSelector struct {
	Tokenizer     string `json:"tokenizer,omitempty"`
	Gram          *int   `json:"gram,omitempty"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty"`
}

// textInput carries a document either as a JSON string or, for bytes that
// may not be valid UTF-8, base64-encoded in data.
type textInput struct {
	Text string `json:"text"`
	Data []byte `json:"data,omitempty"`
}

func (in textInput) bytes() []byte {
	if in.Data != nil {
		return in.Data
	}
	return []byte(in.Text)
}

type termJSON struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type tokenizeResult struct {
	Terms     []termJSON `json:"terms"`
	Count     int        `json:"count"`
	Truncated bool       `json:"truncated"`
}

// resolve returns the tokenizer selected by sel and a key that uniquely
// identifies its configuration.
func (s *Server) resolve(sel tokenizerSelector) (string, *analysis.NGramTokenizer, error) {
	if sel.Tokenizer != "" {
		if sel.Gram != nil || sel.CaseSensitive != nil {
			return "", nil, fmt.Errorf("%w: tokenizer cannot be combined with gram or case_sensitive", analysis.ErrConfig)
		}
		tok, err := s.registry.Get(sel.Tokenizer)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q", ErrTokenizerNotFound, sel.Tokenizer)
		}
		return "name:" + sel.Tokenizer, tok, nil
	}

	opts := s.defaultTok.Options()
	if sel.Gram == nil && sel.CaseSensitive == nil {
		return "opts:" + opts.String(), s.defaultTok, nil
	}
	if sel.Gram != nil {
		opts.Gram = *sel.Gram
	}
	if sel.CaseSensitive != nil {
		opts.CaseSensitive = *sel.CaseSensitive
	}
	tok, err := analysis.NewNGramTokenizer(opts)
	if err != nil {
		return "", nil, err
	}
	return "opts:" + opts.String(), tok, nil
}

func (s *Server) termLimit(requested int) int {
	if requested > 0 && requested < s.cfg.Limits.MaxTerms {
		return requested
	}
	return s.cfg.Limits.MaxTerms
}

// ctxCheckInterval amortizes cancellation checks over emitted terms.
const ctxCheckInterval = 128

// collectTerms gathers at most limit terms of text. Hitting the limit cuts
// the stream and marks the result truncated.
func (s *Server) collectTerms(ctx context.Context, tok analysis.Tokenizer, text []byte, limit int) (tokenizeResult, error) {
	res := tokenizeResult{Terms: []termJSON{}}
	err := tok.Tokenize(text, func(term analysis.TermSpan) error {
		if len(res.Terms)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if len(res.Terms) == limit {
			res.Truncated = true
			return analysis.ErrStop
		}
		res.Terms = append(res.Terms, termJSON{Text: term.Text, Start: term.StartByte, End: term.EndByte})
		return nil
	})
	if err != nil {
		return tokenizeResult{}, err
	}
	res.Count = len(res.Terms)
	s.metrics.AddTerms(res.Count)
	return res, nil
}

// --- Tokenize ---

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		textInput
		tokenizerSelector
		MaxTerms int `json:"max_terms"`
	}
	if err := decodeJSON(w, r, s.cfg.Limits.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, tok, err := s.resolve(req.tokenizerSelector)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.collectTerms(r.Context(), tok, req.bytes(), s.termLimit(req.MaxTerms))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTokenizeBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Texts []batchText `json:"texts"`
		tokenizerSelector
		MaxTerms int `json:"max_terms"`
	}
	if err := decodeJSON(w, r, s.cfg.Limits.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "no texts provided")
		return
	}
	if len(req.Texts) > s.cfg.Limits.MaxBatch {
		s.fail(w, r, fmt.Errorf("%w: %d texts, limit is %d", ErrBatchTooLarge, len(req.Texts), s.cfg.Limits.MaxBatch))
		return
	}

	_, tok, err := s.resolve(req.tokenizerSelector)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	limit := s.termLimit(req.MaxTerms)
	results := make([]tokenizeResult, len(req.Texts))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.Limits.Workers)
	for i, text := range req.Texts {
		g.Go(func() error {
			res, err := s.collectTerms(ctx, tok, textInput(text).bytes(), limit)
			if err != nil {
				return fmt.Errorf("texts[%d]: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// --- Segment ---

type tokenJSON struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Position int    `json:"position"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req textInput
	if err := decodeJSON(w, r, s.cfg.Limits.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := analysis.Segment(req.bytes())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]tokenJSON, len(tokens))
	for i, tok := range tokens {
		out[i] = tokenJSON{
			Text:     tok.Text,
			Category: tok.Category.String(),
			Position: tok.Position,
			Start:    tok.StartByte,
			End:      tok.EndByte,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": out,
	})
}

// --- Highlight ---

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		textInput
		tokenizerSelector
		Column    int                        `json:"column"`
		Open      string                     `json:"open"`
		Close     string                     `json:"close"`
		Instances []highlight.PhraseInstance `json:"instances"`
	}
	if err := decodeJSON(w, r, s.cfg.Limits.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, tok, err := s.resolve(req.tokenizerSelector)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := highlight.PrepareInstances(req.Instances); err != nil {
		s.fail(w, r, err)
		return
	}
	src := highlight.InstanceSlice(req.Instances)

	marked, err := highlight.Highlight(s.cache.Wrap(name, tok), req.Column, src, req.bytes(), req.Open, req.Close)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	spans, err := highlight.Spans(src, req.Column)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if spans == nil {
		spans = []highlight.Span{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"text":  marked,
		"spans": spans,
	})
}

// --- Tokenizers ---

type tokenizerInfo struct {
	Name          string `json:"name"`
	Gram          int    `json:"gram"`
	CaseSensitive bool   `json:"case_sensitive"`
}

func (s *Server) handleListTokenizers(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	infos := make([]tokenizerInfo, 0, len(names))
	for _, name := range names {
		tok, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		opts := tok.Options()
		infos = append(infos, tokenizerInfo{Name: name, Gram: opts.Gram, CaseSensitive: opts.CaseSensitive})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokenizers": infos,
		"default":    s.defaultTok.Options(),
	})
}

// --- Helpers ---

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidUTF8), errors.Is(err, analysis.ErrConfig),
		errors.Is(err, highlight.ErrInvalidInstance):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenizerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}
