package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/reposync/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a reposync.yml or run without one to use defaults.\n")
		return err

	case errors.ErrCodeRepoNotFound:
		if serr, ok := err.(*errors.SyncError); ok {
			fmt.Fprintf(os.Stderr, "❌ '%s' is not a git repository\n", serr.Details["path"])
		}
		return err

	case errors.ErrCodeAuthFailed:
		if serr, ok := err.(*errors.SyncError); ok {
			fmt.Fprintf(os.Stderr, "❌ Authentication failed for remote '%s'\n", serr.Details["remote"])
			fmt.Fprintf(os.Stderr, "Check your credentials, SSH keys, or access token.\n")
		}
		return err

	case errors.ErrCodeMergeConflict:
		fmt.Fprintf(os.Stderr, "❌ The pull produced merge conflicts\n")
		fmt.Fprintf(os.Stderr, "Resolve the conflicted files, then commit the result.\n")
		return err

	case errors.ErrCodePushRejected:
		if serr, ok := err.(*errors.SyncError); ok {
			fmt.Fprintf(os.Stderr, "❌ Push of '%s' was rejected: the remote has newer commits\n", serr.Details["branch"])
		}
		fmt.Fprintf(os.Stderr, "Pull first, then push again.\n")
		return err

	case errors.ErrCodeLockContention:
		fmt.Fprintf(os.Stderr, "❌ Another git process holds the repository lock\n")
		fmt.Fprintf(os.Stderr, "Wait for it to finish, or remove a stale .git/index.lock.\n")
		return err

	case errors.ErrCodeDetachedHead:
		fmt.Fprintf(os.Stderr, "❌ HEAD is detached; check out a branch first\n")
		return err

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(os.Stderr, "❌ git not found. Make sure git is installed and on PATH.\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		// If verbose mode, show full error details
		if h.Verbose {
			if serr, ok := err.(*errors.SyncError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", serr.ToJSON())
			}
		}
		return err
	}
}
