package types

// Operation describes how a commit touched a file.
type Operation string

const (
	OpAdded    Operation = "added"
	OpModified Operation = "modified"
	OpDeleted  Operation = "deleted"
	OpRenamed  Operation = "renamed"
)

// FileChange describes one file touched by a commit together with the set of
// lines the commit altered in it. Lines use new-revision numbering except for
// deleted files, which keep old-revision numbering because no new revision
// exists.
type FileChange struct {
	Path    string    `json:"path"`
	OldPath string    `json:"old_path,omitempty"`
	Op      Operation `json:"operation"`
	Lines   LineSet   `json:"-"`
	// Degraded marks a file whose diff could not be parsed. The whole file
	// is treated as changed.
	Degraded bool `json:"degraded,omitempty"`
}

// WholeFile reports whether every line of the file must be treated as
// changed, either because the file was added or deleted outright or because
// diff parsing degraded.
func (c FileChange) WholeFile() bool {
	return c.Op == OpAdded || c.Op == OpDeleted || c.Degraded
}
