package impact

import (
	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// Resolver computes direct impacts: tests whose own line range was touched
// by the commit.
type Resolver struct {
	log *logging.Logger
}

func NewResolver(log *logging.Logger) *Resolver {
	return &Resolver{log: log}
}

// Resolve takes the commit's test-file changes and the test spans indexed
// for those files. Spans for deleted files must come from the old revision;
// all others from the new one.
//
// For added and deleted files every span in the file is impacted. For
// modified files each changed line is attributed to the innermost span
// containing it, so a test nested inside another test's range claims its
// own lines.
func (r *Resolver) Resolve(changes []types.FileChange, spans map[string][]types.Span) []types.ImpactRecord {
	records := make(map[types.SpanKey]*types.ImpactRecord)

	for _, change := range changes {
		fileSpans := spans[change.Path]
		if len(fileSpans) == 0 {
			continue
		}

		switch {
		case change.Op == types.OpAdded:
			for _, span := range fileSpans {
				addReason(records, span, types.Reason{Tag: types.ReasonFileAdded})
			}
		case change.Op == types.OpDeleted:
			for _, span := range fileSpans {
				addReason(records, span, types.Reason{Tag: types.ReasonFileDeleted})
			}
		case change.Degraded:
			// Whole file counts as changed, so every test in it does too.
			for _, span := range fileSpans {
				addReason(records, span, types.Reason{Tag: types.ReasonDirectEdit})
			}
		default:
			for _, line := range change.Lines.Sorted() {
				if span, ok := innermostContaining(fileSpans, line); ok {
					addReason(records, span, types.Reason{Tag: types.ReasonDirectEdit})
				}
			}
		}
	}

	r.log.Debug("direct impact resolution complete", map[string]any{
		"files": len(changes),
		"tests": len(records),
	})
	return flatten(records)
}

func addReason(records map[types.SpanKey]*types.ImpactRecord, span types.Span, reason types.Reason) {
	key := span.Key()
	record, ok := records[key]
	if !ok {
		record = &types.ImpactRecord{Test: span}
		records[key] = record
	}
	record.AddReason(reason)
}

func flatten(records map[types.SpanKey]*types.ImpactRecord) []types.ImpactRecord {
	out := make([]types.ImpactRecord, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out
}

// innermostContaining returns the narrowest span whose range contains line.
// Ties go to the later start, which is the more deeply nested declaration.
func innermostContaining(spans []types.Span, line int) (types.Span, bool) {
	var best types.Span
	found := false

	for _, span := range spans {
		if !span.Contains(line) {
			continue
		}
		if !found {
			best = span
			found = true
			continue
		}
		bestSize := best.EndLine - best.StartLine
		size := span.EndLine - span.StartLine
		if size < bestSize || (size == bestSize && span.StartLine > best.StartLine) {
			best = span
		}
	}

	return best, found
}
