package impact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

func newQuietLogger() *logging.Logger {
	return logging.New(&bytes.Buffer{}, logging.LevelError, logging.FormatHuman)
}

func testSpan(file, name string, start, end int) types.Span {
	return types.Span{File: file, Kind: types.SpanKindTest, Name: name, StartLine: start, EndLine: end}
}

func TestResolveModifiedFile(t *testing.T) {
	spans := map[string][]types.Span{
		"users.spec.ts": {
			testSpan("users.spec.ts", "creates a user", 4, 10),
			testSpan("users.spec.ts", "deletes a user", 12, 20),
			testSpan("users.spec.ts", "lists users", 22, 30),
		},
	}
	changes := []types.FileChange{{
		Path:  "users.spec.ts",
		Op:    types.OpModified,
		Lines: types.NewLineSet(4, 20, 35),
	}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	require.Len(t, records, 2)

	merged := Merge(records)
	assert.Equal(t, "creates a user", merged[0].Test.Name)
	assert.Equal(t, []types.Reason{{Tag: types.ReasonDirectEdit}}, merged[0].Reasons)
	assert.Equal(t, "deletes a user", merged[1].Test.Name)
}

func TestResolveBoundaryLinesCount(t *testing.T) {
	spans := map[string][]types.Span{
		"b.spec.ts": {testSpan("b.spec.ts", "boundary", 5, 9)},
	}

	for _, line := range []int{5, 9} {
		changes := []types.FileChange{{
			Path:  "b.spec.ts",
			Op:    types.OpModified,
			Lines: types.NewLineSet(line),
		}}
		records := NewResolver(newQuietLogger()).Resolve(changes, spans)
		require.Len(t, records, 1, "line %d should impact the span", line)
	}

	changes := []types.FileChange{{
		Path:  "b.spec.ts",
		Op:    types.OpModified,
		Lines: types.NewLineSet(4, 10),
	}}
	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	assert.Empty(t, records)
}

func TestResolveAddedFile(t *testing.T) {
	spans := map[string][]types.Span{
		"new.spec.ts": {
			testSpan("new.spec.ts", "first", 1, 5),
			testSpan("new.spec.ts", "second", 7, 11),
		},
	}
	changes := []types.FileChange{{Path: "new.spec.ts", Op: types.OpAdded}}

	records := Merge(NewResolver(newQuietLogger()).Resolve(changes, spans))
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, []types.Reason{{Tag: types.ReasonFileAdded}}, record.Reasons)
	}
}

func TestResolveDeletedFile(t *testing.T) {
	spans := map[string][]types.Span{
		"gone.spec.ts": {testSpan("gone.spec.ts", "legacy", 3, 9)},
	}
	changes := []types.FileChange{{Path: "gone.spec.ts", Op: types.OpDeleted}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	require.Len(t, records, 1)
	assert.Equal(t, []types.Reason{{Tag: types.ReasonFileDeleted}}, records[0].Reasons)
}

func TestResolveDegradedFileImpactsEverything(t *testing.T) {
	spans := map[string][]types.Span{
		"bin.spec.ts": {
			testSpan("bin.spec.ts", "a", 1, 4),
			testSpan("bin.spec.ts", "b", 6, 9),
		},
	}
	changes := []types.FileChange{{Path: "bin.spec.ts", Op: types.OpModified, Degraded: true}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	assert.Len(t, records, 2)
}

func TestResolveInnermostSpanWins(t *testing.T) {
	spans := map[string][]types.Span{
		"nested.spec.ts": {
			testSpan("nested.spec.ts", "outer", 1, 20),
			testSpan("nested.spec.ts", "inner", 5, 10),
		},
	}
	changes := []types.FileChange{{
		Path:  "nested.spec.ts",
		Op:    types.OpModified,
		Lines: types.NewLineSet(7),
	}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	require.Len(t, records, 1)
	assert.Equal(t, "inner", records[0].Test.Name)
}

func TestResolveRepeatedEditsReportOnce(t *testing.T) {
	spans := map[string][]types.Span{
		"r.spec.ts": {testSpan("r.spec.ts", "busy", 1, 30)},
	}
	changes := []types.FileChange{{
		Path:  "r.spec.ts",
		Op:    types.OpModified,
		Lines: types.NewLineSet(2, 5, 9, 14, 28),
	}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	require.Len(t, records, 1)
	assert.Equal(t, []types.Reason{{Tag: types.ReasonDirectEdit}}, records[0].Reasons)
}

func TestResolvePureRenameNoImpact(t *testing.T) {
	spans := map[string][]types.Span{
		"moved.spec.ts": {testSpan("moved.spec.ts", "still here", 1, 8)},
	}
	changes := []types.FileChange{{
		Path:    "moved.spec.ts",
		OldPath: "old.spec.ts",
		Op:      types.OpRenamed,
		Lines:   types.NewLineSet(),
	}}

	records := NewResolver(newQuietLogger()).Resolve(changes, spans)
	assert.Empty(t, records)
}

func TestInnermostContaining(t *testing.T) {
	spans := []types.Span{
		testSpan("f.spec.ts", "outer", 1, 100),
		testSpan("f.spec.ts", "mid", 10, 50),
		testSpan("f.spec.ts", "inner", 20, 30),
	}

	span, ok := innermostContaining(spans, 25)
	require.True(t, ok)
	assert.Equal(t, "inner", span.Name)

	span, ok = innermostContaining(spans, 40)
	require.True(t, ok)
	assert.Equal(t, "mid", span.Name)

	span, ok = innermostContaining(spans, 99)
	require.True(t, ok)
	assert.Equal(t, "outer", span.Name)

	_, ok = innermostContaining(spans, 200)
	assert.False(t, ok)
}
