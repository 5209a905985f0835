package types

import (
	"reflect"
	"testing"
)

func TestSpanContainsBoundaries(t *testing.T) {
	span := Span{File: "a.spec.ts", Kind: SpanKindTest, Name: "x", StartLine: 10, EndLine: 20}

	tests := []struct {
		line int
		want bool
	}{
		{9, false},
		{10, true},
		{15, true},
		{20, true},
		{21, false},
	}

	for _, tt := range tests {
		if got := span.Contains(tt.line); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestLineSetIntersectsRange(t *testing.T) {
	set := NewLineSet(5, 12, 30)

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"line on lower bound", 12, 18, true},
		{"line on upper bound", 1, 5, true},
		{"line inside", 10, 14, true},
		{"gap between lines", 13, 29, false},
		{"below all lines", 1, 4, false},
		{"above all lines", 31, 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.IntersectsRange(tt.start, tt.end); got != tt.want {
				t.Errorf("IntersectsRange(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestLineSetSorted(t *testing.T) {
	set := NewLineSet(9, 2, 40, 2)

	got := set.Sorted()
	want := []int{2, 9, 40}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestFileChangeWholeFile(t *testing.T) {
	tests := []struct {
		name   string
		change FileChange
		want   bool
	}{
		{"added file", FileChange{Path: "a.ts", Op: OpAdded}, true},
		{"deleted file", FileChange{Path: "a.ts", Op: OpDeleted}, true},
		{"modified file", FileChange{Path: "a.ts", Op: OpModified, Lines: NewLineSet(3)}, false},
		{"degraded modified file", FileChange{Path: "a.ts", Op: OpModified, Degraded: true}, true},
		{"renamed file", FileChange{Path: "b.ts", OldPath: "a.ts", Op: OpRenamed}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.WholeFile(); got != tt.want {
				t.Errorf("WholeFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpanKeySeparatesRevisions(t *testing.T) {
	current := Span{File: "a.spec.ts", StartLine: 10}
	removed := Span{File: "a.spec.ts", StartLine: 10, OldRevision: true}

	if current.Key() == removed.Key() {
		t.Error("old-revision span must not share identity with a current span")
	}
}

func TestAddReasonDeduplicates(t *testing.T) {
	record := ImpactRecord{Test: Span{File: "a.spec.ts", StartLine: 1, EndLine: 4}}

	record.AddReason(Reason{Tag: ReasonDirectEdit})
	record.AddReason(Reason{Tag: ReasonDirectEdit})
	record.AddReason(Reason{Tag: ReasonHelperChange, HelperName: "makeUser", HelperFile: "helpers.ts"})
	record.AddReason(Reason{Tag: ReasonHelperChange, HelperName: "makeUser", HelperFile: "helpers.ts"})
	record.AddReason(Reason{Tag: ReasonHelperChange, HelperName: "makeUser", HelperFile: "other.ts"})

	if len(record.Reasons) != 3 {
		t.Fatalf("expected 3 distinct reasons, got %d: %v", len(record.Reasons), record.Reasons)
	}
}

func TestSortRecordsOrdering(t *testing.T) {
	records := []ImpactRecord{
		{Test: Span{File: "b.spec.ts", StartLine: 3}},
		{Test: Span{File: "a.spec.ts", StartLine: 20}},
		{Test: Span{File: "a.spec.ts", StartLine: 5}},
	}

	SortRecords(records)

	want := []SpanKey{
		{File: "a.spec.ts", Line: 5},
		{File: "a.spec.ts", Line: 20},
		{File: "b.spec.ts", Line: 3},
	}
	for i, rec := range records {
		if rec.Test.Key() != want[i] {
			t.Errorf("records[%d] = %v, want %v", i, rec.Test.Key(), want[i])
		}
	}
}
