package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SyncError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SyncError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RepoNotFound creates a repository not found error
func RepoNotFound(path string) *SyncError {
	return New(ErrCodeRepoNotFound, fmt.Sprintf("not a git repository: %s", path)).
		WithDetail("path", path)
}

// RemoteNotFound creates a missing remote error
func RemoteNotFound(repoPath, remote string) *SyncError {
	return New(ErrCodeRemoteNotFound, fmt.Sprintf("remote '%s' is not configured", remote)).
		WithDetail("path", repoPath).
		WithDetail("remote", remote)
}

// AuthFailed creates an authentication failure error. The UI routes this to a
// credential prompt rather than a generic error dialog.
func AuthFailed(remote string, cause error) *SyncError {
	return Wrap(cause, ErrCodeAuthFailed, fmt.Sprintf("authentication failed for remote '%s'", remote)).
		WithDetail("remote", remote)
}

// MergeConflict creates a merge conflict error
func MergeConflict(repoPath string, cause error) *SyncError {
	return Wrap(cause, ErrCodeMergeConflict, "merge produced conflicts that must be resolved").
		WithDetail("path", repoPath)
}

// PushRejected creates a non-fast-forward rejection error
func PushRejected(branch string, cause error) *SyncError {
	return Wrap(cause, ErrCodePushRejected, fmt.Sprintf("push of '%s' was rejected (non-fast-forward)", branch)).
		WithDetail("branch", branch)
}

// LockContention creates an index.lock contention error
func LockContention(repoPath string, cause error) *SyncError {
	return Wrap(cause, ErrCodeLockContention, "another git process holds the repository lock").
		WithDetail("path", repoPath)
}

// DetachedHead creates an error for operations that require a checked-out branch
func DetachedHead(repoPath string) *SyncError {
	return New(ErrCodeDetachedHead, "operation requires a checked-out branch but HEAD is detached").
		WithDetail("path", repoPath)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *SyncError {
	syncErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		syncErr = syncErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return syncErr
}

// Invariant creates a fatal invariant violation error. These indicate a broken
// assumption elsewhere in the system and must halt rather than be swallowed.
func Invariant(message string) *SyncError {
	return New(ErrCodeInvariantViolation, message)
}
