package impact

import "github.com/agusespa/diffscope/internal/types"

// Merge unions impact records from every resolution path, keyed by test
// identity (file, start line). Reasons are combined without duplicates and
// the result is ordered by file path then start line, so repeated runs over
// identical inputs produce identical output.
func Merge(groups ...[]types.ImpactRecord) []types.ImpactRecord {
	merged := make(map[types.SpanKey]*types.ImpactRecord)

	for _, group := range groups {
		for _, record := range group {
			key := record.Test.Key()
			existing, ok := merged[key]
			if !ok {
				copied := record
				copied.Reasons = append([]types.Reason(nil), record.Reasons...)
				merged[key] = &copied
				continue
			}
			for _, reason := range record.Reasons {
				existing.AddReason(reason)
			}
		}
	}

	out := flatten(merged)
	for i := range out {
		out[i].SortReasons()
	}
	types.SortRecords(out)
	return out
}
