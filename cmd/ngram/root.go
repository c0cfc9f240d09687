package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"GoNgram/internal/analysis"
	"GoNgram/internal/config"
)

// cli holds state shared by every subcommand, filled in before each run.
type cli struct {
	configPath string
	logLevel   string

	cfg      config.Config
	logger   *slog.Logger
	registry *analysis.Registry
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:     "ngram",
		Short:   "N-gram tokenizer and highlighter for full-text search",
		Version: Version,
		Long: `ngram splits text into overlapping n-gram terms the way a full-text
index sees them, and marks phrase matches in the original text.

Text is read from the first argument, or from stdin when none is given.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initialize(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTokenizeCommand(c),
		newSegmentCommand(c),
		newHighlightCommand(c),
		newTokenizersCommand(c),
	)
	return root
}

func (c *cli) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		if _, err := config.ParseLevel(c.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = c.logLevel
	}

	registry := analysis.NewRegistry()
	for name, args := range cfg.Tokenizers {
		if err := registry.RegisterArgs(name, args); err != nil {
			return err
		}
	}

	c.cfg = cfg
	c.logger = cfg.Log.NewLogger(cmd.ErrOrStderr()).With("component", "cli")
	c.registry = registry
	return nil
}

// tokenizerFlags selects a tokenizer: a registered name, or options layered
// over the configured default.
type tokenizerFlags struct {
	name          string
	gram          int
	caseSensitive bool
}

func (f *tokenizerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "tokenizer", "t", "", "registered tokenizer name")
	cmd.Flags().IntVarP(&f.gram, "gram", "n", analysis.DefaultGram, "n-gram size, 1 to 4")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "keep letter case")
}

func (c *cli) tokenizer(cmd *cobra.Command, f *tokenizerFlags) (*analysis.NGramTokenizer, error) {
	gramSet := cmd.Flags().Changed("gram")
	caseSet := cmd.Flags().Changed("case-sensitive")
	if f.name != "" {
		if gramSet || caseSet {
			return nil, fmt.Errorf("--tokenizer cannot be combined with --gram or --case-sensitive")
		}
		return c.registry.Get(f.name)
	}

	opts := c.cfg.Tokenizer
	if gramSet {
		opts.Gram = f.gram
	}
	if caseSet {
		opts.CaseSensitive = f.caseSensitive
	}
	return analysis.NewNGramTokenizer(opts)
}

// readText returns the single positional argument, or stdin without its
// trailing newline.
func readText(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	return bytes.TrimSuffix(data, []byte("\r")), nil
}
