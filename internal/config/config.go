// Package config loads server and tokenizer settings from defaults, an
// optional config file and NGRAM_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"GoNgram/internal/analysis"
)

// EnvPrefix prefixes every environment override, e.g. NGRAM_SERVER_PORT.
const EnvPrefix = "NGRAM"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LimitsConfig bounds the work a single request may ask for.
type LimitsConfig struct {
	// MaxTerms caps the terms returned per document; the stream is cut, not failed.
	MaxTerms int `mapstructure:"max_terms"`
	// MaxBatch caps the documents in one batch request.
	MaxBatch int `mapstructure:"max_batch"`
	// Workers is the number of documents of a batch tokenized concurrently.
	Workers int `mapstructure:"workers"`
	// MaxBodyBytes caps the request body size.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// CacheConfig configures the highlight term cache.
type CacheConfig struct {
	// Size is the number of term streams kept; 0 disables the cache.
	Size int `mapstructure:"size"`
}

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       LogConfig        `mapstructure:"log"`
	Tokenizer analysis.Options `mapstructure:"tokenizer"`

	// Tokenizers registers named tokenizers from host-style arguments,
	// e.g. title: ["gram", "3", "case_sensitive"].
	Tokenizers map[string][]string `mapstructure:"tokenizers"`

	Limits LimitsConfig `mapstructure:"limits"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tokenizer: analysis.DefaultOptions(),
		Limits: LimitsConfig{
			MaxTerms:     100000,
			MaxBatch:     256,
			Workers:      8,
			MaxBodyBytes: 8 << 20,
		},
		Cache: CacheConfig{
			Size: 1024,
		},
	}
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tokenizer.gram", d.Tokenizer.Gram)
	v.SetDefault("tokenizer.case_sensitive", d.Tokenizer.CaseSensitive)
	v.SetDefault("tokenizers", map[string][]string{})
	v.SetDefault("limits.max_terms", d.Limits.MaxTerms)
	v.SetDefault("limits.max_batch", d.Limits.MaxBatch)
	v.SetDefault("limits.workers", d.Limits.Workers)
	v.SetDefault("limits.max_body_bytes", d.Limits.MaxBodyBytes)
	v.SetDefault("cache.size", d.Cache.Size)
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if err := c.Tokenizer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tokenizer: %w", err))
	}
	for name, args := range c.Tokenizers {
		if _, err := analysis.ParseArgs(args); err != nil {
			errs = append(errs, fmt.Errorf("tokenizers.%s: %w", name, err))
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Limits.MaxTerms <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_terms must be positive, got %d", c.Limits.MaxTerms))
	}
	if c.Limits.MaxBatch <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_batch must be positive, got %d", c.Limits.MaxBatch))
	}
	if c.Limits.Workers <= 0 {
		errs = append(errs, fmt.Errorf("limits.workers must be positive, got %d", c.Limits.Workers))
	}
	if c.Limits.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_body_bytes must be positive, got %d", c.Limits.MaxBodyBytes))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
