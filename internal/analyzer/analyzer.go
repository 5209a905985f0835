package analyzer

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/agusespa/diffscope/internal/diff"
	"github.com/agusespa/diffscope/internal/git"
	"github.com/agusespa/diffscope/internal/impact"
	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/scanner"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/pkg/config"
)

// Repository is the version-control surface one analysis run consumes.
// *git.Repository satisfies it; tests may substitute their own.
type Repository interface {
	ResolveCommit(ctx context.Context, rev string) (string, error)
	Parent(ctx context.Context, commit string) (string, error)
	CommitSummary(ctx context.Context, commit string) (git.CommitInfo, error)
	ChangedFiles(ctx context.Context, parent, commit string) ([]types.FileChange, error)
	Diff(ctx context.Context, parent, commit string) (string, error)
	FileContent(ctx context.Context, rev, path string) (string, bool, error)
	ListFiles(ctx context.Context, rev string) ([]string, error)
}

// ChangedFile is one commit-touched file as shown in the report header.
type ChangedFile struct {
	Path string          `json:"path"`
	Op   types.Operation `json:"operation"`
	Kind types.FileKind  `json:"kind"`
}

// Report is the complete result of analyzing one commit.
type Report struct {
	Commit  git.CommitInfo       `json:"commit"`
	Files   []ChangedFile        `json:"changed_files"`
	Records []types.ImpactRecord `json:"impacted_tests"`
}

// Analyzer wires the pipeline: range extraction, span indexing, direct
// resolution, helper propagation, aggregation. It holds no per-run state;
// every Analyze call derives everything fresh from the repository.
type Analyzer struct {
	repo       Repository
	classifier *scanner.Classifier
	extractor  *diff.Extractor
	tests      *scanner.TestScanner
	helpers    *scanner.HelperScanner
	resolver   *impact.Resolver
	propagator *impact.Propagator
	workers    int
	log        *logging.Logger
}

func New(repo Repository, cfg *config.Config, log *logging.Logger) *Analyzer {
	analysis := cfg.Analysis
	if analysis.Workers <= 0 {
		analysis.Workers = runtime.NumCPU()
	}
	return &Analyzer{
		repo:       repo,
		classifier: scanner.NewClassifier(analysis.TestSuffixes, analysis.SourceSuffixes, analysis.ExcludeDirs),
		extractor:  diff.NewExtractor(log),
		tests:      scanner.NewTestScanner(log),
		helpers:    scanner.NewHelperScanner(log),
		resolver:   impact.NewResolver(log),
		propagator: impact.NewPropagator(log, analysis.Workers),
		workers:    analysis.Workers,
		log:        log,
	}
}

// indexedFile carries one changed test or source file through the run:
// its (possibly reclassified) change, the spans of both revisions and the
// new-revision text for usage scanning.
type indexedFile struct {
	change   types.FileChange
	kind     types.FileKind
	newSpans []types.Span
	oldSpans []types.Span
	newText  string
}

// Analyze resolves rev and reports every test the commit impacts. An
// unresolvable revision is the only fatal condition; every degradable
// failure is logged and folded into a conservative result instead.
func (a *Analyzer) Analyze(ctx context.Context, rev string) (*Report, error) {
	sha, err := a.repo.ResolveCommit(ctx, rev)
	if err != nil {
		return nil, err
	}
	parent, err := a.repo.Parent(ctx, sha)
	if err != nil {
		return nil, err
	}
	info, err := a.repo.CommitSummary(ctx, sha)
	if err != nil {
		return nil, err
	}

	a.log.Info("analyzing commit", map[string]any{"commit": info.Short, "subject": info.Subject})

	listed, err := a.repo.ChangedFiles(ctx, parent, sha)
	if err != nil {
		return nil, err
	}
	diffText, err := a.repo.Diff(ctx, parent, sha)
	if err != nil {
		return nil, err
	}
	changes := a.extractor.Extract(diffText, listed)

	indexed, err := a.indexChangedFiles(ctx, parent, sha, changes)
	if err != nil {
		return nil, err
	}

	direct := a.resolver.Resolve(testChanges(indexed), resolverSpans(indexed))
	churn := a.testChurn(indexed)

	helpers := impact.CollectChangedHelpers(sourceChanges(indexed), helperSpans(indexed, false), helperSpans(indexed, true))
	testFiles, testSpans, err := a.collectTestFiles(ctx, sha, indexed)
	if err != nil {
		return nil, err
	}
	propagated, err := a.propagator.Propagate(ctx, helpers, testFiles, testSpans)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Commit:  info,
		Files:   changedFiles(changes, indexed, a.classifier),
		Records: impact.Merge(direct, churn, propagated),
	}
	a.log.Info("analysis complete", map[string]any{
		"files":   len(report.Files),
		"tests":   len(report.Records),
		"helpers": len(helpers),
	})
	return report, nil
}

// indexChangedFiles fetches and scans both revisions of every changed
// test and source file concurrently. Fetch failures reclassify the file
// rather than aborting: a modified file whose old content is gone counts
// as added, one whose new content is gone counts as deleted.
func (a *Analyzer) indexChangedFiles(ctx context.Context, parent, sha string, changes []types.FileChange) ([]indexedFile, error) {
	var files []indexedFile
	for _, change := range changes {
		kind := a.classifier.Classify(change.Path)
		if kind == types.FileKindOther {
			continue
		}
		files = append(files, indexedFile{change: change, kind: kind})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range files {
		g.Go(func() error {
			return a.indexFile(ctx, parent, sha, &files[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (a *Analyzer) indexFile(ctx context.Context, parent, sha string, f *indexedFile) error {
	scan := a.tests.Scan
	if f.kind == types.FileKindSource {
		scan = a.helpers.Scan
	}
	oldPath := f.change.OldPath
	if oldPath == "" {
		oldPath = f.change.Path
	}

	if f.change.Op != types.OpDeleted {
		content, exists, err := a.repo.FileContent(ctx, sha, f.change.Path)
		if err != nil {
			return err
		}
		if !exists {
			a.log.Warn("missing revision content, treating file as deleted", map[string]any{
				"path": f.change.Path,
				"rev":  sha,
			})
			f.change.Op = types.OpDeleted
		} else {
			f.newText = content
			f.newSpans = scan(f.change.Path, content)
		}
	}

	if f.change.Op != types.OpAdded {
		content, exists, err := a.repo.FileContent(ctx, parent, oldPath)
		if err != nil {
			return err
		}
		switch {
		case exists:
			f.oldSpans = scan(oldPath, content)
			for i := range f.oldSpans {
				f.oldSpans[i].OldRevision = true
			}
		case f.change.Op == types.OpDeleted:
			a.log.Warn("missing revision content for deleted file, nothing to index", map[string]any{
				"path": oldPath,
				"rev":  parent,
			})
		default:
			a.log.Warn("missing revision content, treating file as added", map[string]any{
				"path": oldPath,
				"rev":  parent,
			})
			f.change.Op = types.OpAdded
		}
	}
	return nil
}

// testChurn reports tests that a modified test file gained or lost, by
// name. A brand-new name is tagged test_added on its new span; a name
// present only in the old revision is tagged test_removed on its old
// span. Synthetic names carry no identity and are skipped.
func (a *Analyzer) testChurn(indexed []indexedFile) []types.ImpactRecord {
	var records []types.ImpactRecord

	for _, f := range indexed {
		if f.kind != types.FileKindTest {
			continue
		}
		if f.change.Op != types.OpModified && f.change.Op != types.OpRenamed {
			continue
		}

		oldNames := spanNames(f.oldSpans)
		newNames := spanNames(f.newSpans)

		for _, span := range f.newSpans {
			if span.Synthetic {
				continue
			}
			if _, existed := oldNames[span.Name]; !existed {
				records = append(records, types.ImpactRecord{
					Test:    span,
					Reasons: []types.Reason{{Tag: types.ReasonTestAdded}},
				})
			}
		}
		for _, span := range f.oldSpans {
			if span.Synthetic {
				continue
			}
			if _, survives := newNames[span.Name]; !survives {
				records = append(records, types.ImpactRecord{
					Test:    span,
					Reasons: []types.Reason{{Tag: types.ReasonTestRemoved}},
				})
			}
		}
	}
	return records
}

func spanNames(spans []types.Span) map[string]struct{} {
	names := make(map[string]struct{}, len(spans))
	for _, span := range spans {
		if !span.Synthetic {
			names[span.Name] = struct{}{}
		}
	}
	return names
}

// collectTestFiles gathers the text and spans of every test file at the
// new revision, which the propagator scans for helper references. Changed
// files reuse the spans indexed earlier; the rest of the suite is fetched
// and scanned concurrently.
func (a *Analyzer) collectTestFiles(ctx context.Context, sha string, indexed []indexedFile) (map[string]string, map[string][]types.Span, error) {
	texts := make(map[string]string)
	spans := make(map[string][]types.Span)

	for _, f := range indexed {
		if f.kind != types.FileKindTest || f.change.Op == types.OpDeleted {
			continue
		}
		texts[f.change.Path] = f.newText
		spans[f.change.Path] = f.newSpans
	}

	paths, err := a.repo.ListFiles(ctx, sha)
	if err != nil {
		return nil, nil, err
	}

	type scanned struct {
		path  string
		text  string
		spans []types.Span
	}
	results := make(chan scanned, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, path := range paths {
		if a.classifier.Classify(path) != types.FileKindTest {
			continue
		}
		if _, done := texts[path]; done {
			continue
		}
		g.Go(func() error {
			content, exists, err := a.repo.FileContent(ctx, sha, path)
			if err != nil {
				return err
			}
			if !exists {
				a.log.Warn("listed test file has no content, skipping", map[string]any{
					"path": path,
					"rev":  sha,
				})
				return nil
			}
			results <- scanned{path: path, text: content, spans: a.tests.Scan(path, content)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	close(results)
	for r := range results {
		texts[r.path] = r.text
		spans[r.path] = r.spans
	}

	return texts, spans, nil
}

// testChanges returns the (possibly reclassified) changes of test files.
func testChanges(indexed []indexedFile) []types.FileChange {
	var changes []types.FileChange
	for _, f := range indexed {
		if f.kind == types.FileKindTest {
			changes = append(changes, f.change)
		}
	}
	return changes
}

func sourceChanges(indexed []indexedFile) []types.FileChange {
	var changes []types.FileChange
	for _, f := range indexed {
		if f.kind == types.FileKindSource {
			changes = append(changes, f.change)
		}
	}
	return changes
}

// resolverSpans maps each test file to the spans the direct resolver must
// intersect: old-revision spans for deleted files, new-revision spans for
// everything else.
func resolverSpans(indexed []indexedFile) map[string][]types.Span {
	spans := make(map[string][]types.Span)
	for _, f := range indexed {
		if f.kind != types.FileKindTest {
			continue
		}
		if f.change.Op == types.OpDeleted {
			spans[f.change.Path] = f.oldSpans
		} else {
			spans[f.change.Path] = f.newSpans
		}
	}
	return spans
}

// helperSpans maps each source file to its helper spans at one revision,
// keyed by the change path the propagator looks up.
func helperSpans(indexed []indexedFile, old bool) map[string][]types.Span {
	spans := make(map[string][]types.Span)
	for _, f := range indexed {
		if f.kind != types.FileKindSource {
			continue
		}
		if old {
			spans[f.change.Path] = f.oldSpans
		} else {
			spans[f.change.Path] = f.newSpans
		}
	}
	return spans
}

// changedFiles builds the report's file listing: every listed file with
// its operation and classification, reclassifications applied, ordered by
// path.
func changedFiles(changes []types.FileChange, indexed []indexedFile, classifier *scanner.Classifier) []ChangedFile {
	ops := make(map[string]types.Operation, len(indexed))
	for _, f := range indexed {
		ops[f.change.Path] = f.change.Op
	}

	files := make([]ChangedFile, 0, len(changes))
	for _, change := range changes {
		op := change.Op
		if reclassified, ok := ops[change.Path]; ok {
			op = reclassified
		}
		files = append(files, ChangedFile{
			Path: change.Path,
			Op:   op,
			Kind: classifier.Classify(change.Path),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}
