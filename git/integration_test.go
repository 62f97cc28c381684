package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/git"
	"github.com/grovetools/reposync/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	t.Run("non-git directory", func(t *testing.T) {
		_, err := client.Status(ctx, t.TempDir())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeRepoNotFound, errors.GetCode(err))
	})

	t.Run("unborn repository", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitRepo(t, dir)

		status, err := client.Status(ctx, dir)
		require.NoError(t, err)
		assert.True(t, status.Unborn)
		assert.Equal(t, "main", status.CurrentBranch)
		assert.Empty(t, status.CurrentSHA)
	})

	t.Run("clean repository", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitRepoWithCommit(t, dir)

		status, err := client.Status(ctx, dir)
		require.NoError(t, err)
		assert.False(t, status.Unborn)
		assert.False(t, status.Detached)
		assert.Equal(t, "main", status.CurrentBranch)
		assert.Len(t, status.CurrentSHA, 40)
		assert.Empty(t, status.Files)
	})

	t.Run("detached head", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitRepoWithCommit(t, dir)
		sha := testutil.HeadSHA(t, dir)
		testutil.RunGit(t, dir, "checkout", "--detach", sha)

		status, err := client.Status(ctx, dir)
		require.NoError(t, err)
		assert.True(t, status.Detached)
		assert.Empty(t, status.CurrentBranch)
	})

	t.Run("working directory changes", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitRepoWithCommit(t, dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0644))
		testutil.RunGit(t, dir, "add", "new.txt")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("u"), 0644))

		status, err := client.Status(ctx, dir)
		require.NoError(t, err)
		require.Len(t, status.Files, 3)

		byPath := map[string]git.FileChange{}
		for _, fc := range status.Files {
			byPath[fc.Path] = fc
		}

		assert.Equal(t, git.StatusModified, byPath["README.md"].Status)
		assert.True(t, byPath["README.md"].HasUnstagedChanges)
		assert.False(t, byPath["README.md"].HasStagedChanges)

		assert.Equal(t, git.StatusNew, byPath["new.txt"].Status)
		assert.True(t, byPath["new.txt"].HasStagedChanges)

		assert.Equal(t, git.StatusUntracked, byPath["untracked.txt"].Status)
	})

	t.Run("rename", func(t *testing.T) {
		dir := t.TempDir()
		testutil.InitRepoWithCommit(t, dir)
		testutil.RunGit(t, dir, "mv", "README.md", "RENAMED.md")

		status, err := client.Status(ctx, dir)
		require.NoError(t, err)
		require.Len(t, status.Files, 1)
		assert.Equal(t, git.StatusRenamed, status.Files[0].Status)
		assert.Equal(t, "RENAMED.md", status.Files[0].Path)
		assert.Equal(t, "README.md", status.Files[0].OldPath)
	})
}

func TestBranches(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	_, localDir := testutil.SetupRemotePair(t)
	testutil.RunGit(t, localDir, "branch", "feature/auth")

	branches, err := client.Branches(ctx, localDir)
	require.NoError(t, err)

	var local, remote, feature *git.Branch
	for i := range branches {
		b := &branches[i]
		switch {
		case b.Name == "main" && b.Type == git.BranchLocal:
			local = b
		case b.Name == "origin/main":
			remote = b
		case b.Name == "feature/auth":
			feature = b
		}
	}

	require.NotNil(t, local)
	assert.Equal(t, "origin/main", local.Upstream)
	assert.False(t, local.NeedsPublish())

	require.NotNil(t, remote)
	assert.Equal(t, git.BranchRemote, remote.Type)

	require.NotNil(t, feature)
	assert.Empty(t, feature.Upstream)
	assert.True(t, feature.NeedsPublish())
}

func TestCommitsAndLookup(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	dir := t.TempDir()
	testutil.InitRepoWithCommit(t, dir)
	testutil.CreateCommit(t, dir, "a.txt", "a")
	shaB := testutil.CreateCommit(t, dir, "b.txt", "b")

	commits, err := client.Commits(ctx, dir, "HEAD", 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, shaB, commits[0].SHA)
	assert.Equal(t, "Add b.txt", commits[0].Summary)
	assert.Equal(t, "Test User", commits[0].Author.Name)
	assert.Len(t, commits[1].ParentSHAs, 1)

	commit, err := client.LookupCommit(ctx, dir, shaB)
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.Equal(t, shaB, commit.SHA)
}

func TestCommitWithCoAuthors(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	dir := t.TempDir()
	testutil.InitRepoWithCommit(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature.go"), []byte("package x\n"), 0644))

	require.NoError(t, client.StagePaths(ctx, dir, []string{"feature.go"}))
	sha, err := client.CreateCommit(ctx, dir, "Add feature", "Details here.", []git.CommitIdentity{
		{Name: "Alice", Email: "alice@example.com"},
	})
	require.NoError(t, err)

	commit, err := client.LookupCommit(ctx, dir, sha)
	require.NoError(t, err)
	assert.Equal(t, "Add feature", commit.Summary)
	require.Len(t, commit.CoAuthors, 1)
	assert.Equal(t, "Alice", commit.CoAuthors[0].Name)
}

func TestAheadBehindAndMergeBase(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	dir := t.TempDir()
	testutil.InitRepoWithCommit(t, dir)
	base := testutil.HeadSHA(t, dir)

	testutil.RunGit(t, dir, "checkout", "-b", "feature")
	featureSHA := testutil.CreateCommit(t, dir, "f.txt", "f")

	testutil.RunGit(t, dir, "checkout", "main")
	testutil.CreateCommit(t, dir, "m1.txt", "m1")
	mainSHA := testutil.CreateCommit(t, dir, "m2.txt", "m2")

	ab, err := client.AheadBehind(ctx, dir, featureSHA, mainSHA)
	require.NoError(t, err)
	assert.Equal(t, 1, ab.Ahead)
	assert.Equal(t, 2, ab.Behind)

	mb, err := client.MergeBase(ctx, dir, "feature", "main")
	require.NoError(t, err)
	assert.Equal(t, base, mb)
}

func TestFastForwardRef(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	dir := t.TempDir()
	testutil.InitRepoWithCommit(t, dir)
	oldSHA := testutil.HeadSHA(t, dir)

	testutil.RunGit(t, dir, "branch", "stale")
	newSHA := testutil.CreateCommit(t, dir, "x.txt", "x")

	// stale is strictly behind main; move its ref without a checkout.
	require.NoError(t, client.FastForwardRef(ctx, dir, "stale", newSHA, oldSHA))
	assert.Equal(t, newSHA, testutil.RunGit(t, dir, "rev-parse", "stale"))
}

func TestDiffFile(t *testing.T) {
	ctx := context.Background()
	client := git.NewClient()

	dir := t.TempDir()
	testutil.InitRepoWithCommit(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Project\nnew line\n"), 0644))

	diff, err := client.DiffFile(ctx, dir, "README.md")
	require.NoError(t, err)
	require.Len(t, diff.Hunks, 1)

	added := 0
	for _, line := range diff.Hunks[0].Lines {
		if line.Kind == git.DiffLineAdded {
			added++
			assert.Equal(t, "new line", line.Content)
		}
	}
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, diff.SelectableLineCount())
}

func TestSynthesizeUntrackedDiff(t *testing.T) {
	diff := git.SynthesizeUntrackedDiff("new.txt", "line one\nline two\n")
	require.Len(t, diff.Hunks, 1)
	assert.Equal(t, 2, diff.SelectableLineCount())
	assert.Equal(t, "line one", diff.Hunks[0].Lines[0].Content)

	empty := git.SynthesizeUntrackedDiff("empty.txt", "")
	assert.Empty(t, empty.Hunks)
}
