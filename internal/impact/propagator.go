package impact

import (
	"context"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// ChangedHelper identifies one helper function the commit touched.
type ChangedHelper struct {
	Name string
	File string
}

// CollectChangedHelpers applies the interval rule to the helper spans of
// changed source files. Every helper of an added or deleted file counts as
// changed, and so does any helper present in only one of the two revisions,
// which catches helpers the commit introduced or removed without touching
// surviving lines. Synthetic spans never qualify because their names cannot
// be cross-referenced.
func CollectChangedHelpers(changes []types.FileChange, current, previous map[string][]types.Span) []ChangedHelper {
	var helpers []ChangedHelper
	seen := make(map[ChangedHelper]struct{})

	add := func(name, file string) {
		h := ChangedHelper{Name: name, File: file}
		if _, dup := seen[h]; dup {
			return
		}
		seen[h] = struct{}{}
		helpers = append(helpers, h)
	}
	addAll := func(spans []types.Span, file string) {
		for _, span := range spans {
			if span.Synthetic {
				continue
			}
			add(span.Name, file)
		}
	}

	for _, change := range changes {
		switch {
		case change.Op == types.OpAdded:
			addAll(current[change.Path], change.Path)
		case change.Op == types.OpDeleted:
			addAll(previous[change.Path], change.Path)
		case change.Degraded:
			addAll(current[change.Path], change.Path)
			addRemoved(add, current[change.Path], previous[change.Path], change.Path)
		default:
			currentNames := make(map[string]struct{})
			for _, span := range current[change.Path] {
				currentNames[span.Name] = struct{}{}
				if span.Synthetic {
					continue
				}
				if change.Lines.IntersectsRange(span.StartLine, span.EndLine) {
					add(span.Name, change.Path)
				}
			}
			// Helpers only present in the new revision were added by the
			// commit even when no surviving line intersects them.
			previousNames := make(map[string]struct{})
			for _, span := range previous[change.Path] {
				previousNames[span.Name] = struct{}{}
			}
			for _, span := range current[change.Path] {
				if span.Synthetic {
					continue
				}
				if _, existed := previousNames[span.Name]; !existed {
					add(span.Name, change.Path)
				}
			}
			for _, span := range previous[change.Path] {
				if span.Synthetic {
					continue
				}
				if _, survives := currentNames[span.Name]; !survives {
					add(span.Name, change.Path)
				}
			}
		}
	}

	return helpers
}

func addRemoved(add func(name, file string), current, previous []types.Span, file string) {
	currentNames := make(map[string]struct{}, len(current))
	for _, span := range current {
		currentNames[span.Name] = struct{}{}
	}
	for _, span := range previous {
		if span.Synthetic {
			continue
		}
		if _, survives := currentNames[span.Name]; !survives {
			add(span.Name, file)
		}
	}
}

// Propagator finds tests that reference changed helpers by name.
type Propagator struct {
	log     *logging.Logger
	workers int
}

func NewPropagator(log *logging.Logger, workers int) *Propagator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Propagator{log: log, workers: workers}
}

// Propagate scans every test file for word-bounded occurrences of each
// changed helper name and resolves each hit to the innermost test span
// containing its line. Occurrences outside any test span are ignored.
// Files are scanned concurrently; output order is left to the aggregator.
func (p *Propagator) Propagate(ctx context.Context, helpers []ChangedHelper, testFiles map[string]string, testSpans map[string][]types.Span) ([]types.ImpactRecord, error) {
	if len(helpers) == 0 || len(testFiles) == 0 {
		return nil, nil
	}

	patterns := make([]*regexp.Regexp, len(helpers))
	for i, helper := range helpers {
		patterns[i] = identifierPattern(helper.Name)
	}

	var mu sync.Mutex
	records := make(map[types.SpanKey]*types.ImpactRecord)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for path, content := range testFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			spans := testSpans[path]
			if len(spans) == 0 {
				return nil
			}
			lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

			for li, line := range lines {
				for i, pattern := range patterns {
					if !pattern.MatchString(line) {
						continue
					}
					span, ok := innermostContaining(spans, li+1)
					if !ok {
						continue
					}
					mu.Lock()
					addReason(records, span, types.Reason{
						Tag:        types.ReasonHelperChange,
						HelperName: helpers[i].Name,
						HelperFile: helpers[i].File,
					})
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.log.Debug("helper propagation complete", map[string]any{
		"helpers": len(helpers),
		"files":   len(testFiles),
		"tests":   len(records),
	})
	return flatten(records), nil
}

// identifierPattern matches name only when both neighbours are outside the
// identifier character class, so parseUser never matches inside
// parseUserV2.
func identifierPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])` + regexp.QuoteMeta(name) + `(?:[^A-Za-z0-9_$]|$)`)
}
