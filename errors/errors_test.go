package errors

import (
	"fmt"
	"testing"
)

func TestSyncError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeRepoNotFound, "repository not found")
	if err.Code != ErrCodeRepoNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeRepoNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeRepoNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("path", "/tmp/repo").WithDetail("remote", "origin")
	if detailed.Details["path"] != "/tmp/repo" {
		t.Error("WithDetail should add details")
	}
}

func TestBackgroundTagging(t *testing.T) {
	err := AuthFailed("origin", fmt.Errorf("exit status 128")).AsBackground()
	if !err.Background {
		t.Error("AsBackground should tag the error")
	}

	fresh := AuthFailed("origin", fmt.Errorf("exit status 128"))
	if fresh.Background {
		t.Error("errors should not be background-tagged by default")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := RemoteNotFound("/tmp/repo", "origin")
	if err.Code != ErrCodeRemoteNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeRemoteNotFound, err.Code)
	}
	if err.Details["remote"] != "origin" {
		t.Error("RemoteNotFound should include remote detail")
	}

	err = PushRejected("main", fmt.Errorf("exit status 1"))
	if err.Code != ErrCodePushRejected {
		t.Errorf("expected code %s, got %s", ErrCodePushRejected, err.Code)
	}
	if err.Details["branch"] != "main" {
		t.Error("PushRejected should include branch detail")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Invariant("no default branch found when one was required")) {
		t.Error("invariant violations are fatal")
	}
	if IsFatal(RepoNotFound("/tmp/x")) {
		t.Error("ordinary failures are not fatal")
	}
}
