package gitops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates an empty repository with a local committer identity.
func initTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()

	raw, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg, err := raw.Config()
	require.NoError(t, err)
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	require.NoError(t, raw.SetConfig(cfg))

	repo, err := Open(dir)
	require.NoError(t, err)
	return repo, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// seedCommit stages everything and commits, giving tests a non-empty HEAD.
func seedCommit(t *testing.T, repo *Repository) {
	t.Helper()
	require.NoError(t, repo.StageAll())
	_, err := repo.Commit("chore: seed")
	require.NoError(t, err)
}

func TestOpen(t *testing.T) {
	_, dir := initTestRepo(t)

	t.Run("discovers repository from subdirectory", func(t *testing.T) {
		sub := filepath.Join(dir, "internal", "deep")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		_, err := Open(sub)
		require.NoError(t, err)
	})

	t.Run("fails outside any repository", func(t *testing.T) {
		_, err := Open(t.TempDir())
		require.ErrorIs(t, err, ErrRepositoryAccess)
	})
}

func TestCurrentBranch(t *testing.T) {
	repo, dir := initTestRepo(t)

	t.Run("fails before the first commit", func(t *testing.T) {
		_, err := repo.CurrentBranch()
		require.ErrorIs(t, err, ErrRepositoryAccess)
	})

	writeFile(t, dir, "main.go", "package main\n")
	seedCommit(t, repo)

	t.Run("reports the checked-out branch", func(t *testing.T) {
		branch, err := repo.CurrentBranch()
		require.NoError(t, err)
		assert.Equal(t, "master", branch)
	})

	t.Run("reports HEAD when detached", func(t *testing.T) {
		head, err := repo.repo.Head()
		require.NoError(t, err)
		wt, err := repo.repo.Worktree()
		require.NoError(t, err)
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: head.Hash()}))

		branch, err := repo.CurrentBranch()
		require.NoError(t, err)
		assert.Equal(t, "HEAD", branch)
	})
}

func TestStageFile(t *testing.T) {
	repo, dir := initTestRepo(t)
	writeFile(t, dir, "main.go", "package main\n")

	require.NoError(t, repo.StageFile("main.go"))

	diff, err := repo.StagedDiff()
	require.NoError(t, err)
	assert.Contains(t, diff, "main.go")

	t.Run("fails for a missing path", func(t *testing.T) {
		err := repo.StageFile("no-such-file.go")
		require.ErrorIs(t, err, ErrIndex)
	})
}

func TestStagedDiff(t *testing.T) {
	t.Run("empty when index matches HEAD", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "main.go", "package main\n")
		seedCommit(t, repo)

		diff, err := repo.StagedDiff()
		require.NoError(t, err)
		assert.Empty(t, diff)
	})

	t.Run("covers staged changes against an unborn HEAD", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "main.go", "package main\n")
		require.NoError(t, repo.StageFile("main.go"))

		diff, err := repo.StagedDiff()
		require.NoError(t, err)
		assert.Contains(t, diff, "main.go")
		assert.Contains(t, diff, "+package main")
	})

	t.Run("ignores unstaged edits", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "staged.go", "package a\n")
		writeFile(t, dir, "unstaged.go", "package a\n")
		seedCommit(t, repo)

		writeFile(t, dir, "staged.go", "package a\n\nvar X = 1\n")
		writeFile(t, dir, "unstaged.go", "package a\n\nvar Y = 2\n")
		require.NoError(t, repo.StageFile("staged.go"))

		diff, err := repo.StagedDiff()
		require.NoError(t, err)
		assert.Contains(t, diff, "+var X = 1")
		assert.NotContains(t, diff, "unstaged.go")
	})

	t.Run("handles nested directories", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "internal/app/app.go", "package app\n")
		seedCommit(t, repo)

		writeFile(t, dir, "internal/app/app.go", "package app\n\nvar Z = 3\n")
		require.NoError(t, repo.StageFile("internal/app/app.go"))

		diff, err := repo.StagedDiff()
		require.NoError(t, err)
		assert.Contains(t, diff, "internal/app/app.go")
		assert.Contains(t, diff, "+var Z = 3")
	})

	t.Run("covers staged deletions", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "gone.go", "package a\n")
		seedCommit(t, repo)

		require.NoError(t, os.Remove(filepath.Join(dir, "gone.go")))
		require.NoError(t, repo.StageAll())

		diff, err := repo.StagedDiff()
		require.NoError(t, err)
		assert.Contains(t, diff, "gone.go")
		assert.Contains(t, diff, "-package a")
	})
}

func TestTruncateDiff(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "short diff passes through",
			in:   "diff --git a/a.go b/a.go",
			want: "diff --git a/a.go b/a.go",
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "\n\n+added line\n",
			want: "+added line",
		},
		{
			name: "exactly at the cap is untouched",
			in:   strings.Repeat("a", maxDiffLen),
			want: strings.Repeat("a", maxDiffLen),
		},
		{
			name: "over the cap is cut and marked",
			in:   strings.Repeat("a", maxDiffLen+100),
			want: strings.Repeat("a", maxDiffLen) + truncationMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateDiff(tt.in))
		})
	}
}

func TestCommit(t *testing.T) {
	repo, dir := initTestRepo(t)

	writeFile(t, dir, "main.go", "package main\n")
	require.NoError(t, repo.StageFile("main.go"))

	rootHash, err := repo.Commit("feat: add main")
	require.NoError(t, err)

	root, err := repo.repo.CommitObject(rootHash)
	require.NoError(t, err)
	assert.Equal(t, "feat: add main", root.Message)
	assert.Equal(t, 0, root.NumParents())
	assert.Equal(t, "Test User", root.Author.Name)
	assert.Equal(t, "test@example.com", root.Author.Email)

	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	require.NoError(t, repo.StageFile("main.go"))

	childHash, err := repo.Commit("feat: add entrypoint")
	require.NoError(t, err)

	child, err := repo.repo.CommitObject(childHash)
	require.NoError(t, err)
	require.Equal(t, 1, child.NumParents())
	parent, err := child.Parent(0)
	require.NoError(t, err)
	assert.Equal(t, rootHash, parent.Hash)

	head, err := repo.repo.Head()
	require.NoError(t, err)
	assert.Equal(t, childHash, head.Hash())
}

func TestCreateSessionBranch(t *testing.T) {
	t.Run("fails on a repository without commits", func(t *testing.T) {
		repo, _ := initTestRepo(t)
		err := repo.CreateSessionBranch("session/abc_20260828_120000")
		require.ErrorIs(t, err, ErrBranch)
	})

	t.Run("creates and checks out the branch", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "main.go", "package main\n")
		seedCommit(t, repo)

		require.NoError(t, repo.CreateSessionBranch("session/abc_20260828_120000"))

		branch, err := repo.CurrentBranch()
		require.NoError(t, err)
		assert.Equal(t, "session/abc_20260828_120000", branch)
	})

	t.Run("fails when the branch already exists", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "main.go", "package main\n")
		seedCommit(t, repo)

		require.NoError(t, repo.CreateSessionBranch("session/dup"))
		err := repo.CreateSessionBranch("session/dup")
		require.ErrorIs(t, err, ErrBranch)
	})

	t.Run("keeps uncommitted changes in the worktree", func(t *testing.T) {
		repo, dir := initTestRepo(t)
		writeFile(t, dir, "main.go", "package main\n")
		seedCommit(t, repo)

		writeFile(t, dir, "main.go", "package main\n\nvar dirty = true\n")
		require.NoError(t, repo.CreateSessionBranch("session/dirty"))

		content, err := os.ReadFile(filepath.Join(dir, "main.go"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "var dirty = true")
	})
}
