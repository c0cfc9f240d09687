package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GoNgram/internal/analysis"
	"GoNgram/internal/config"
)

var (
	ErrTokenizerNotFound = errors.New("tokenizer not found")
	ErrBatchTooLarge     = errors.New("batch too large")
)

// Options configures a Server.
type Options struct {
	Config config.Config

	// Logger for request failures. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Registry collects the server's metrics and backs GET /metrics.
	// If nil, a fresh registry is created.
	Registry *prometheus.Registry
}

// Server exposes the tokenizer and highlighter over HTTP.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *analysis.Registry
	defaultTok *analysis.NGramTokenizer
	cache      *TermCache
	metrics    *Metrics
	gatherer   prometheus.Gatherer
}

// New builds a Server, registering the configured named tokenizers.
func New(opts Options) (*Server, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	promReg := opts.Registry
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}

	defaultTok, err := analysis.NewNGramTokenizer(opts.Config.Tokenizer)
	if err != nil {
		return nil, err
	}

	registry := analysis.NewRegistry()
	for name, args := range opts.Config.Tokenizers {
		if err := registry.RegisterArgs(name, args); err != nil {
			return nil, err
		}
	}

	metrics := NewMetrics(promReg)
	cache, err := NewTermCache(opts.Config.Cache.Size, metrics)
	if err != nil {
		return nil, fmt.Errorf("create term cache: %w", err)
	}

	return &Server{
		cfg:        opts.Config,
		logger:     logger.With("component", "server"),
		registry:   registry,
		defaultTok: defaultTok,
		cache:      cache,
		metrics:    metrics,
		gatherer:   promReg,
	}, nil
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /tokenize", s.instrument("tokenize", s.handleTokenize))
	mux.HandleFunc("POST /tokenize/batch", s.instrument("tokenize_batch", s.handleTokenizeBatch))
	mux.HandleFunc("POST /segment", s.instrument("segment", s.handleSegment))
	mux.HandleFunc("POST /highlight", s.instrument("highlight", s.handleHighlight))
	mux.HandleFunc("GET /tokenizers", s.instrument("tokenizers", s.handleListTokenizers))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveRequest(endpoint, fmt.Sprint(rec.status), time.Since(start))
	}
}
