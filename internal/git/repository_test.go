package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/agusespa/diffscope/internal/errors"
	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

func newQuietLogger() *logging.Logger {
	return logging.New(&bytes.Buffer{}, logging.LevelError, logging.FormatHuman)
}

type testRepo struct {
	t    *testing.T
	dir  string
	repo *Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	tr := &testRepo{t: t, dir: dir}
	tr.git("init")
	tr.git("config", "user.email", "dev@example.com")
	tr.git("config", "user.name", "Dev")

	repo, err := Open(dir, 0, newQuietLogger())
	require.NoError(t, err)
	tr.repo = repo
	return tr
}

func (tr *testRepo) git(args ...string) string {
	tr.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = tr.dir
	out, err := cmd.CombinedOutput()
	require.NoError(tr.t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

func (tr *testRepo) write(path, content string) {
	tr.t.Helper()
	full := filepath.Join(tr.dir, path)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(tr.t, os.WriteFile(full, []byte(content), 0o644))
}

func (tr *testRepo) commit(msg string) string {
	tr.t.Helper()
	tr.git("add", "-A")
	tr.git("commit", "-m", msg)
	return tr.git("rev-parse", "HEAD")
}

func TestOpenRejectsNonRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	_, err := Open(t.TempDir(), 0, newQuietLogger())
	require.Error(t, err)
	assert.Equal(t, dserrors.CodeGitCommandFailed, dserrors.CodeOf(err))
}

func TestResolveCommit(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.txt", "one\n")
	sha := tr.commit("first")

	resolved, err := tr.repo.ResolveCommit(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, sha, resolved)

	_, err = tr.repo.ResolveCommit(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.Equal(t, dserrors.CodeCommitNotFound, dserrors.CodeOf(err))
	assert.True(t, dserrors.IsFatal(err))
}

func TestParentOfRootCommitIsEmptyTree(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.txt", "one\n")
	root := tr.commit("first")

	parent, err := tr.repo.Parent(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, emptyTree, parent)

	tr.write("a.txt", "two\n")
	second := tr.commit("second")

	parent, err = tr.repo.Parent(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, root, parent)
}

func TestChangedFilesStatuses(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("keep.ts", "export const keep = () => 1;\n")
	tr.write("gone.ts", "export const gone = () => 2;\n")
	tr.write("moved.ts", "export const moved = () => 3;\nexport const pad = () => 4;\n")
	tr.commit("base")

	tr.write("keep.ts", "export const keep = () => 10;\n")
	tr.write("fresh.spec.ts", "test('fresh', () => {});\n")
	require.NoError(t, os.Remove(filepath.Join(tr.dir, "gone.ts")))
	tr.git("mv", "moved.ts", "renamed.ts")
	commit := tr.commit("changes")

	parent, err := tr.repo.Parent(context.Background(), commit)
	require.NoError(t, err)
	changes, err := tr.repo.ChangedFiles(context.Background(), parent, commit)
	require.NoError(t, err)

	byPath := make(map[string]types.FileChange)
	for _, fc := range changes {
		byPath[fc.Path] = fc
	}

	assert.Equal(t, types.OpModified, byPath["keep.ts"].Op)
	assert.Equal(t, types.OpAdded, byPath["fresh.spec.ts"].Op)
	assert.Equal(t, types.OpDeleted, byPath["gone.ts"].Op)
	require.Contains(t, byPath, "renamed.ts")
	assert.Equal(t, types.OpRenamed, byPath["renamed.ts"].Op)
	assert.Equal(t, "moved.ts", byPath["renamed.ts"].OldPath)
}

func TestDiffAndFileContent(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("src/calc.ts", "export const add = (a: number, b: number) => a + b;\n")
	first := tr.commit("base")

	tr.write("src/calc.ts", "export const add = (a: number, b: number) => a + b + 0;\n")
	second := tr.commit("tweak")

	diff, err := tr.repo.Diff(context.Background(), first, second)
	require.NoError(t, err)
	assert.Contains(t, diff, "@@")
	assert.Contains(t, diff, "src/calc.ts")

	content, exists, err := tr.repo.FileContent(context.Background(), first, "src/calc.ts")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, content, "a + b;")

	_, exists, err = tr.repo.FileContent(context.Background(), first, "src/absent.ts")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListFilesAtRevision(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("one.spec.ts", "test('one', () => {});\n")
	first := tr.commit("one")
	tr.write("two.spec.ts", "test('two', () => {});\n")
	second := tr.commit("two")

	files, err := tr.repo.ListFiles(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.spec.ts"}, files)

	files, err = tr.repo.ListFiles(context.Background(), second)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.spec.ts", "two.spec.ts"}, files)
}

func TestCommitSummary(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("a.txt", "x\n")
	sha := tr.commit("add the thing")

	info, err := tr.repo.CommitSummary(context.Background(), sha)
	require.NoError(t, err)
	assert.Equal(t, sha, info.SHA)
	assert.Equal(t, "add the thing", info.Subject)
	assert.Equal(t, "Dev", info.Author)
	assert.True(t, strings.HasPrefix(sha, info.Short))
}
