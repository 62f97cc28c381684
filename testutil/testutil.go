// Package testutil provides helpers for tests that exercise real git
// repositories in temporary directories.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RunGit runs a git command in the given directory, failing the test on error.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s failed with output: %s", strings.Join(args, " "), string(output))
	return strings.TrimSpace(string(output))
}

// InitRepo initializes a git repository with user config and a main branch,
// without any commits.
func InitRepo(t *testing.T, dir string) {
	t.Helper()

	RunGit(t, dir, "init", "--initial-branch=main")
	RunGit(t, dir, "config", "user.name", "Test User")
	RunGit(t, dir, "config", "user.email", "test@example.com")
}

// InitRepoWithCommit initializes a repository and creates an initial commit.
func InitRepoWithCommit(t *testing.T, dir string) {
	t.Helper()

	InitRepo(t, dir)
	CreateCommit(t, dir, "README.md", "# Test Project\n")
}

// CreateCommit writes a file and commits it, returning the new HEAD SHA.
func CreateCommit(t *testing.T, dir, filename, content string) string {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0600))
	RunGit(t, dir, "add", filename)
	RunGit(t, dir, "commit", "-m", "Add "+filename)
	return HeadSHA(t, dir)
}

// HeadSHA returns the current HEAD commit SHA.
func HeadSHA(t *testing.T, dir string) string {
	t.Helper()
	return RunGit(t, dir, "rev-parse", "HEAD")
}

// SetupRemotePair creates a bare remote and a local clone with an initial
// commit pushed, returning (remoteDir, localDir).
func SetupRemotePair(t *testing.T) (string, string) {
	t.Helper()

	baseDir := t.TempDir()
	remoteDir := filepath.Join(baseDir, "remote.git")
	localDir := filepath.Join(baseDir, "local")

	require.NoError(t, os.Mkdir(remoteDir, 0755))
	RunGit(t, remoteDir, "init", "--bare", "--initial-branch=main")

	RunGit(t, baseDir, "clone", "remote.git", "local")
	RunGit(t, localDir, "config", "user.name", "Test User")
	RunGit(t, localDir, "config", "user.email", "test@example.com")

	CreateCommit(t, localDir, "README.md", "# Test\n")
	RunGit(t, localDir, "push", "origin", "main")

	return remoteDir, localDir
}

// CloneSecondLocal clones another working copy of the same remote, used to
// advance the remote independently of the primary clone.
func CloneSecondLocal(t *testing.T, remoteDir string) string {
	t.Helper()

	baseDir := filepath.Dir(remoteDir)
	name := "second"
	RunGit(t, baseDir, "clone", filepath.Base(remoteDir), name)

	dir := filepath.Join(baseDir, name)
	RunGit(t, dir, "config", "user.name", "Other User")
	RunGit(t, dir, "config", "user.email", "other@example.com")
	return dir
}
