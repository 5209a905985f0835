package types

import "sort"

// FileKind classifies a repository path for analysis purposes.
type FileKind string

const (
	FileKindTest   FileKind = "test"
	FileKindSource FileKind = "source"
	FileKindOther  FileKind = "other"
)

// SpanKind distinguishes test spans from helper spans.
type SpanKind string

const (
	SpanKindTest   SpanKind = "test"
	SpanKindHelper SpanKind = "helper"
)

// Span is a named, line-ranged region of source text representing one test
// case or one helper function. Line numbers are 1-indexed and inclusive.
type Span struct {
	File      string   `json:"file"`
	Kind      SpanKind `json:"kind"`
	Name      string   `json:"name"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	// Synthetic marks a span whose name could not be extracted literally.
	// Synthetic helper spans are excluded from usage cross-referencing.
	Synthetic bool `json:"synthetic,omitempty"`
	// LowConfidence marks a span whose block never closed before end of file.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// OldRevision marks a span derived from the pre-change revision, such
	// as a test in a deleted file. Its line numbers refer to that revision,
	// so it never shares an identity with a new-revision span.
	OldRevision bool `json:"old_revision,omitempty"`
}

// Contains reports whether the given line falls inside the span's range.
func (s Span) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// SpanKey identifies a test span by file, start line and revision side.
// Names are not part of the identity because they may repeat within a
// file; the revision side keeps an old-revision span at some line from
// colliding with a new-revision span at the same line.
type SpanKey struct {
	File string
	Line int
	Old  bool
}

func (s Span) Key() SpanKey {
	return SpanKey{File: s.File, Line: s.StartLine, Old: s.OldRevision}
}

// LineSet is a set of 1-indexed line numbers.
type LineSet map[int]struct{}

func NewLineSet(lines ...int) LineSet {
	s := make(LineSet, len(lines))
	for _, n := range lines {
		s.Add(n)
	}
	return s
}

func (s LineSet) Add(n int) {
	s[n] = struct{}{}
}

func (s LineSet) Contains(n int) bool {
	_, ok := s[n]
	return ok
}

func (s LineSet) Empty() bool {
	return len(s) == 0
}

// IntersectsRange reports whether any line in the set falls inside the
// inclusive interval [start, end].
func (s LineSet) IntersectsRange(start, end int) bool {
	for n := range s {
		if n >= start && n <= end {
			return true
		}
	}
	return false
}

// Sorted returns the set's lines in ascending order.
func (s LineSet) Sorted() []int {
	lines := make([]int, 0, len(s))
	for n := range s {
		lines = append(lines, n)
	}
	sort.Ints(lines)
	return lines
}
