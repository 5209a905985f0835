package types

import "sort"

// ReasonTag names the rule that linked a commit to a test.
type ReasonTag string

const (
	ReasonDirectEdit   ReasonTag = "direct_edit"
	ReasonHelperChange ReasonTag = "helper_change"
	ReasonFileAdded    ReasonTag = "file_added"
	ReasonFileDeleted  ReasonTag = "file_deleted"
	ReasonTestAdded    ReasonTag = "test_added"
	ReasonTestRemoved  ReasonTag = "test_removed"
)

// Reason records why a test is impacted. Helper provenance is set only for
// helper_change reasons.
type Reason struct {
	Tag        ReasonTag `json:"tag"`
	HelperName string    `json:"helper_name,omitempty"`
	HelperFile string    `json:"helper_file,omitempty"`
}

// ImpactRecord pairs an impacted test with every reason the analysis found
// for it.
type ImpactRecord struct {
	Test    Span     `json:"test"`
	Reasons []Reason `json:"reasons"`
}

// HasReason reports whether the record carries a reason with the given tag.
func (r ImpactRecord) HasReason(tag ReasonTag) bool {
	for _, reason := range r.Reasons {
		if reason.Tag == tag {
			return true
		}
	}
	return false
}

// AddReason appends a reason unless an identical one is already present.
func (r *ImpactRecord) AddReason(reason Reason) {
	for _, existing := range r.Reasons {
		if existing == reason {
			return
		}
	}
	r.Reasons = append(r.Reasons, reason)
}

// SortReasons orders a record's reasons by tag, then helper name, then
// helper file, so repeated runs produce identical output.
func (r *ImpactRecord) SortReasons() {
	sort.Slice(r.Reasons, func(i, j int) bool {
		a, b := r.Reasons[i], r.Reasons[j]
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		if a.HelperName != b.HelperName {
			return a.HelperName < b.HelperName
		}
		return a.HelperFile < b.HelperFile
	})
}

// SortRecords orders impact records by file path, then start line, with
// old-revision spans after new-revision ones at the same line.
func SortRecords(records []ImpactRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Test, records[j].Test
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return !a.OldRevision && b.OldRevision
	})
}
