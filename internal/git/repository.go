package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	dserrors "github.com/agusespa/diffscope/internal/errors"
	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// DefaultCommandTimeout bounds every git invocation.
const DefaultCommandTimeout = 30 * time.Second

// emptyTree is git's well-known empty tree object. Diffing a root commit
// against it makes every file appear as added, which keeps the pipeline
// uniform for commits without a parent.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// CommitInfo is the displayable identity of the analyzed commit.
type CommitInfo struct {
	SHA     string `json:"sha"`
	Short   string `json:"short"`
	Subject string `json:"subject"`
	Author  string `json:"author"`
}

// Repository runs git commands against one local repository.
type Repository struct {
	root    string
	timeout time.Duration
	log     *logging.Logger
}

// Open verifies that root is inside a git work tree and returns a handle
// for it.
func Open(root string, timeout time.Duration, log *logging.Logger) (*Repository, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	r := &Repository{root: root, timeout: timeout, log: log}

	if _, err := r.run(context.Background(), "rev-parse", "--is-inside-work-tree"); err != nil {
		return nil, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "%s is not a git repository", root)
	}
	return r, nil
}

// Root returns the repository path the handle operates on.
func (r *Repository) Root() string {
	return r.root
}

// ResolveCommit resolves any commit-ish (sha, abbreviated sha, ref) to a
// full commit id. An unresolvable revision is the one fatal condition of
// an analysis.
func (r *Repository) ResolveCommit(ctx context.Context, rev string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", dserrors.Wrap(dserrors.CodeCommitNotFound, err, "commit %q not found", rev)
	}
	return out, nil
}

// Parent returns the first parent of commit, or the empty tree id for a
// root commit.
func (r *Repository) Parent(ctx context.Context, commit string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", commit+"^")
	if err != nil {
		if isExitError(err) {
			r.log.Debug("commit has no parent, diffing against empty tree", map[string]any{
				"commit": commit,
			})
			return emptyTree, nil
		}
		return "", dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "resolving parent of %s", commit)
	}
	return out, nil
}

// ChangedFiles lists the files a commit touched relative to parent, with
// rename detection. Statuses map onto operations: A, M, D, Rnnn, with
// copies treated as additions and type changes as modifications.
func (r *Repository) ChangedFiles(ctx context.Context, parent, commit string) ([]types.FileChange, error) {
	out, err := r.run(ctx, "diff", "--name-status", "-M", parent+".."+commit)
	if err != nil {
		return nil, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "listing files of %s", commit)
	}

	var changes []types.FileChange
	for _, line := range splitLines(out) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]

		switch {
		case strings.HasPrefix(status, "A"), strings.HasPrefix(status, "C"):
			changes = append(changes, types.FileChange{Path: fields[len(fields)-1], Op: types.OpAdded})
		case strings.HasPrefix(status, "D"):
			changes = append(changes, types.FileChange{Path: fields[1], Op: types.OpDeleted})
		case strings.HasPrefix(status, "R"):
			if len(fields) < 3 {
				continue
			}
			changes = append(changes, types.FileChange{Path: fields[2], OldPath: fields[1], Op: types.OpRenamed})
		default:
			changes = append(changes, types.FileChange{Path: fields[1], Op: types.OpModified})
		}
	}
	return changes, nil
}

// Diff returns the unified diff between parent and commit with zero
// context lines, matching the line attribution the extractor expects.
func (r *Repository) Diff(ctx context.Context, parent, commit string) (string, error) {
	out, err := r.runRaw(ctx, "diff", "--unified=0", "-M", parent+".."+commit)
	if err != nil {
		return "", dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "diffing %s", commit)
	}
	return out, nil
}

// FileContent reads one file at one revision. The second return reports
// whether the file exists there; a missing file is an expected condition,
// not an error.
func (r *Repository) FileContent(ctx context.Context, rev, path string) (string, bool, error) {
	out, err := r.runRaw(ctx, "show", rev+":"+path)
	if err != nil {
		if isExitError(err) {
			return "", false, nil
		}
		return "", false, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "reading %s at %s", path, rev)
	}
	return out, true, nil
}

// ListFiles returns every path tracked at rev.
func (r *Repository) ListFiles(ctx context.Context, rev string) ([]string, error) {
	out, err := r.run(ctx, "ls-tree", "-r", "--name-only", rev)
	if err != nil {
		return nil, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "listing tree of %s", rev)
	}
	return splitLines(out), nil
}

// CommitSummary fetches the display header for a commit.
func (r *Repository) CommitSummary(ctx context.Context, commit string) (CommitInfo, error) {
	out, err := r.run(ctx, "show", "-s", "--format=%H%x00%h%x00%s%x00%an", commit)
	if err != nil {
		return CommitInfo{}, dserrors.Wrap(dserrors.CodeGitCommandFailed, err, "reading commit %s", commit)
	}

	parts := strings.SplitN(out, "\x00", 4)
	if len(parts) < 4 {
		return CommitInfo{}, dserrors.New(dserrors.CodeGitCommandFailed, "unexpected commit format for %s", commit)
	}
	return CommitInfo{SHA: parts[0], Short: parts[1], Subject: parts[2], Author: parts[3]}, nil
}

// run executes git with a timeout and returns trimmed stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runRaw(ctx, args...)
	return strings.TrimSpace(out), err
}

// runRaw is run without output trimming, for content reads where trailing
// whitespace is meaningful.
func (r *Repository) runRaw(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root

	r.log.Debug("running git command", map[string]any{"args": strings.Join(args, " ")})

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s timed out after %s", args[0], r.timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if stderr != "" {
				return "", fmt.Errorf("git %s: %w: %s", args[0], err, stderr)
			}
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(output), nil
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
