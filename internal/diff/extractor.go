package diff

import (
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// Extractor merges a commit's file listing with its unified diff into
// per-file changed-line sets. Diff parse failures never abort the analysis;
// affected files degrade to whole-file-changed instead.
type Extractor struct {
	log *logging.Logger
}

func NewExtractor(log *logging.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract fills in the changed-line sets for the files listed by the commit.
// The listed slice comes from the file listing and already carries each
// file's operation; Extract attributes line numbers from the diff text.
//
// Added and modified lines use new-revision numbering. A removed line in a
// surviving file is attributed to the new-revision line directly before the
// removal point. Deleted files keep old-revision numbering because no new
// revision exists.
func (e *Extractor) Extract(diffText string, listed []types.FileChange) []types.FileChange {
	changes := make([]types.FileChange, len(listed))
	byPath := make(map[string]*types.FileChange, len(listed))
	for i, fc := range listed {
		fc.Lines = types.NewLineSet()
		changes[i] = fc
		byPath[fc.Path] = &changes[i]
	}

	var fileDiffs []*godiff.FileDiff
	if strings.TrimSpace(diffText) != "" {
		parsed, err := godiff.ParseMultiFileDiff([]byte(diffText))
		if err != nil {
			e.log.Warn("diff parse failed, treating listed files as whole-file changes", map[string]any{
				"error": err.Error(),
				"files": len(changes),
			})
			for i := range changes {
				changes[i].Degraded = true
			}
			return changes
		}
		fileDiffs = parsed
	}

	seen := make(map[string]bool, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := effectivePath(fd)
		if path == "" {
			continue
		}
		fc, ok := byPath[path]
		if !ok {
			// The diff mentions a file the listing did not. Keep it so no
			// change slips through.
			e.log.Debug("diff contains unlisted file", map[string]any{"path": path})
			changes = append(changes, types.FileChange{
				Path:  path,
				Op:    opFromMarkers(fd),
				Lines: types.NewLineSet(),
			})
			fc = &changes[len(changes)-1]
			byPath[path] = fc
		}
		seen[path] = true
		collectLines(fd, fc)
	}

	// A surviving file with line-level semantics but no usable hunks means
	// the diff gave us nothing to go on (binary content, parse gaps). A
	// rename that appears in the diff with no hunks is the exception: that
	// is a pure rename and must not trigger any impact.
	for i := range changes {
		fc := &changes[i]
		if fc.Op == types.OpAdded || fc.Op == types.OpDeleted || fc.Degraded {
			continue
		}
		if fc.Op == types.OpRenamed && seen[fc.Path] {
			continue
		}
		if !seen[fc.Path] || fc.Lines.Empty() {
			e.log.Warn("no line information for changed file, treating as whole-file change", map[string]any{
				"path": fc.Path,
			})
			fc.Degraded = true
		}
	}

	return changes
}

func collectLines(fd *godiff.FileDiff, fc *types.FileChange) {
	deleted := fc.Op == types.OpDeleted
	for _, hunk := range fd.Hunks {
		oldLine := int(hunk.OrigStartLine)
		newLine := int(hunk.NewStartLine)

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			if len(line) == 0 {
				oldLine++
				newLine++
				continue
			}
			switch line[0] {
			case '+':
				fc.Lines.Add(newLine)
				newLine++
			case '-':
				if deleted {
					fc.Lines.Add(oldLine)
				} else {
					fc.Lines.Add(newLine - 1)
				}
				oldLine++
			case ' ':
				oldLine++
				newLine++
			case '\\':
				// "\ No newline at end of file"
			}
		}
	}
}

func effectivePath(fd *godiff.FileDiff) string {
	newPath := cleanPath(fd.NewName)
	if newPath != "" {
		return newPath
	}
	return cleanPath(fd.OrigName)
}

func opFromMarkers(fd *godiff.FileDiff) types.Operation {
	switch {
	case fd.OrigName == "/dev/null" || fd.OrigName == "":
		return types.OpAdded
	case fd.NewName == "/dev/null" || fd.NewName == "":
		return types.OpDeleted
	default:
		return types.OpModified
	}
}

// cleanPath strips the a/ or b/ prefix git puts on diff paths.
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
