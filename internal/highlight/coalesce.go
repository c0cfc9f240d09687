// Package highlight maps phrase matches reported by a search host back onto
// the text of a column and marks the matched ranges.
package highlight

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidInstance is returned for phrase instances whose term range is
// negative or does not fit in an int.
var ErrInvalidInstance = errors.New("invalid phrase instance")

// PhraseInstance is one occurrence of a query phrase, as reported by the
// search host. Offset and Length count terms, not bytes.
type PhraseInstance struct {
	Column int `json:"column"`
	Phrase int `json:"phrase"`
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Validate checks that the instance covers a representable, non-negative
// term range.
func (p PhraseInstance) Validate() error {
	switch {
	case p.Offset < 0:
		return fmt.Errorf("%w: negative offset %d", ErrInvalidInstance, p.Offset)
	case p.Length < 0:
		return fmt.Errorf("%w: negative length %d", ErrInvalidInstance, p.Length)
	case p.Offset > math.MaxInt-max(p.Length, 1):
		return fmt.Errorf("%w: offset %d with length %d overflows", ErrInvalidInstance, p.Offset, p.Length)
	}
	return nil
}

// PrepareInstances validates instances received from an untrusted client and
// sorts them by ascending offset in place, keeping the order of equal
// offsets.
func PrepareInstances(insts []PhraseInstance) error {
	for i, inst := range insts {
		if err := inst.Validate(); err != nil {
			return fmt.Errorf("instances[%d]: %w", i, err)
		}
	}
	slices.SortStableFunc(insts, func(a, b PhraseInstance) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return nil
}

// Instances is the host's view of the phrase matches in one row. Instances of
// a column MUST be ordered by ascending Offset.
type Instances interface {
	InstCount() (int, error)
	Inst(i int) (PhraseInstance, error)
}

// InstanceSlice adapts an in-memory slice to Instances.
type InstanceSlice []PhraseInstance

func (s InstanceSlice) InstCount() (int, error) {
	return len(s), nil
}

func (s InstanceSlice) Inst(i int) (PhraseInstance, error) {
	return s[i], nil
}

// Span is a coalesced range of term indexes; both ends are inclusive.
type Span struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// State is the lifecycle state of a Coalescer.
type State int

const (
	Scanning State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "done"
	}
	return "scanning"
}

// Coalescer merges the overlapping phrase instances of one column into
// disjoint spans. It is a single-pass iterator:
//
//	c, err := NewCoalescer(src, col)
//	for c.Next() {
//	    span := c.Span()
//	}
//	err = c.Err()
//
// A Coalescer is not safe for concurrent use.
type Coalescer struct {
	src    Instances
	column int
	count  int

	next  int
	span  Span
	state State
	err   error
}

// NewCoalescer creates an iterator over the spans of column.
func NewCoalescer(src Instances, column int) (*Coalescer, error) {
	count, err := src.InstCount()
	if err != nil {
		return nil, err
	}
	return &Coalescer{src: src, column: column, count: count}, nil
}

// Next advances to the next span. It returns false once the instances are
// exhausted or the host reported an error.
func (c *Coalescer) Next() bool {
	if c.state == Done {
		return false
	}

	var span Span
	open := false
	for c.next < c.count {
		inst, err := c.src.Inst(c.next)
		if err != nil {
			c.err = err
			c.state = Done
			return false
		}
		if inst.Column == c.column {
			last := inst.Offset + max(inst.Length, 1) - 1
			switch {
			case !open:
				span = Span{First: inst.Offset, Last: last}
				open = true
			case inst.Offset <= span.Last:
				span.Last = max(span.Last, last)
			default:
				// Starts after the open span; it opens the next span.
				c.span = span
				return true
			}
		}
		c.next++
	}

	c.state = Done
	if open {
		c.span = span
		return true
	}
	return false
}

// Span returns the current span. Valid only after Next returns true.
func (c *Coalescer) Span() Span {
	return c.span
}

// Err returns the host error that stopped iteration, if any.
func (c *Coalescer) Err() error {
	return c.err
}

// State reports whether more spans may follow.
func (c *Coalescer) State() State {
	return c.state
}

// Spans collects every coalesced span of column.
func Spans(src Instances, column int) ([]Span, error) {
	c, err := NewCoalescer(src, column)
	if err != nil {
		return nil, err
	}
	var spans []Span
	for c.Next() {
		spans = append(spans, c.Span())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return spans, nil
}
