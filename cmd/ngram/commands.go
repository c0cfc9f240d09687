package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"GoNgram/internal/analysis"
	"GoNgram/internal/highlight"
)

func newTokenizeCommand(c *cli) *cobra.Command {
	var flags tokenizerFlags
	cmd := &cobra.Command{
		Use:   "tokenize [text]",
		Short: "Print the n-gram terms of text",
		Long:  "Print one term per line as term, start byte and end byte separated by tabs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := c.tokenizer(cmd, &flags)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			out := bufio.NewWriter(cmd.OutOrStdout())
			count := 0
			err = tok.Tokenize(text, func(term analysis.TermSpan) error {
				count++
				_, err := fmt.Fprintf(out, "%s\t%d\t%d\n", term.Text, term.StartByte, term.EndByte)
				return err
			})
			if err != nil {
				return err
			}
			c.logger.Debug("tokenized", "tokenizer", tok.Options().String(), "bytes", len(text), "terms", count)
			return out.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}

func newSegmentCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "segment [text]",
		Short: "Print the character tokens of text",
		Long:  "Print one token per line as token, category, start byte and end byte separated by tabs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			out := bufio.NewWriter(cmd.OutOrStdout())
			err = analysis.SegmentFunc(text, func(tok analysis.Token) error {
				_, err := fmt.Fprintf(out, "%s\t%s\t%d\t%d\n", strconv.Quote(tok.Text), tok.Category, tok.StartByte, tok.EndByte)
				return err
			})
			if err != nil {
				return err
			}
			return out.Flush()
		},
	}
}

func newHighlightCommand(c *cli) *cobra.Command {
	var (
		flags     tokenizerFlags
		column    int
		instances []string
		openTag   string
		closeTag  string
	)
	cmd := &cobra.Command{
		Use:   "highlight [text]",
		Short: "Mark phrase matches in text",
		Long: `Mark phrase matches in text. Each --instance is phrase:offset:length,
where offset and length count n-gram terms of the column text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := c.tokenizer(cmd, &flags)
			if err != nil {
				return err
			}
			insts, err := parseInstances(instances, column)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			marked, err := highlight.Highlight(tok, column, highlight.InstanceSlice(insts), text, openTag, closeTag)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), marked)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&column, "column", 0, "column the instances belong to")
	cmd.Flags().StringArrayVarP(&instances, "instance", "i", nil, "phrase match as phrase:offset:length (repeatable)")
	cmd.Flags().StringVar(&openTag, "open", "[", "text inserted before each match")
	cmd.Flags().StringVar(&closeTag, "close", "]", "text inserted after each match")
	return cmd
}

// parseInstances parses phrase:offset:length triples and orders them by
// offset.
func parseInstances(specs []string, column int) ([]highlight.PhraseInstance, error) {
	insts := make([]highlight.PhraseInstance, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("instance %q: want phrase:offset:length", s)
		}
		var vals [3]int
		for i, p := range parts {
			v, err := strconv.Atoi(p)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("instance %q: %q is not a non-negative integer", s, p)
			}
			vals[i] = v
		}
		insts = append(insts, highlight.PhraseInstance{
			Column: column,
			Phrase: vals[0],
			Offset: vals[1],
			Length: vals[2],
		})
	}
	if err := highlight.PrepareInstances(insts); err != nil {
		return nil, err
	}
	return insts, nil
}

func newTokenizersCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenizers",
		Short: "List registered tokenizers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range c.registry.Names() {
				tok, err := c.registry.Get(name)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\n", name, tok.Options()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
