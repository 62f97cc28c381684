package git

import (
	"strings"

	"github.com/grovetools/reposync/command"
	"github.com/grovetools/reposync/errors"
)

// stderrPattern maps a recognizable fragment of git stderr output to a
// failure class. Patterns are checked in order; first match wins.
type stderrPattern struct {
	fragment string
	code     errors.ErrorCode
}

// Classification patterns follow git's own documented error phrasing. Auth
// patterns cover both the credential-helper and ssh paths; anything
// unrecognized stays COMMAND_FAILED so callers never over-classify.
var stderrPatterns = []stderrPattern{
	{"Authentication failed", errors.ErrCodeAuthFailed},
	{"could not read Username", errors.ErrCodeAuthFailed},
	{"could not read Password", errors.ErrCodeAuthFailed},
	{"Permission denied (publickey", errors.ErrCodeAuthFailed},
	{"Host key verification failed", errors.ErrCodeAuthFailed},
	{"Invalid username or password", errors.ErrCodeAuthFailed},

	{"Automatic merge failed", errors.ErrCodeMergeConflict},
	{"CONFLICT (", errors.ErrCodeMergeConflict},
	{"you have unmerged files", errors.ErrCodeMergeConflict},
	{"needs merge", errors.ErrCodeMergeConflict},

	{"non-fast-forward", errors.ErrCodePushRejected},
	{"[rejected]", errors.ErrCodePushRejected},
	{"failed to push some refs", errors.ErrCodePushRejected},

	{"not a git repository", errors.ErrCodeRepoNotFound},
	{"Repository not found", errors.ErrCodeRemoteNotFound},
	{"does not appear to be a git repository", errors.ErrCodeRemoteNotFound},

	{"index.lock", errors.ErrCodeLockContention},
	{".lock': File exists", errors.ErrCodeLockContention},

	{"HEAD does not point to a branch", errors.ErrCodeDetachedHead},
	{"does not have any commits yet", errors.ErrCodeUnbornBranch},
	{"unknown revision or path not in the working tree", errors.ErrCodeNoSuchRef},
	{"bad revision", errors.ErrCodeNoSuchRef},
}

// classifyResult turns a non-zero git exit into a typed error, wrapping it
// with repository and operation context. Raw process errors never reach
// callers unwrapped.
func classifyResult(repoPath, operation string, result *command.Result) *errors.SyncError {
	if result.ExitCode == 0 {
		return nil
	}

	code := errors.ErrCodeCommandFailed
	for _, p := range stderrPatterns {
		if strings.Contains(result.Stderr, p.fragment) {
			code = p.code
			break
		}
	}

	stderr := strings.TrimSpace(result.Stderr)
	if len(stderr) > 500 {
		stderr = stderr[:500]
	}

	return errors.New(code, "git "+operation+" failed").
		WithDetail("path", repoPath).
		WithDetail("operation", operation).
		WithDetail("exitCode", result.ExitCode).
		WithDetail("stderr", stderr)
}
