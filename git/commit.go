package git

import (
	"context"
	"strings"

	"github.com/grovetools/reposync/errors"
)

// StagePaths stages the given paths. An empty slice is an invariant violation
// rather than "stage everything": callers must be explicit about what a
// partial commit includes.
func (c *Client) StagePaths(ctx context.Context, repoPath string, paths []string) error {
	if len(paths) == 0 {
		return errors.Invariant("StagePaths called with no paths")
	}

	args := []string{"add", "--"}
	for _, p := range paths {
		if err := c.builder.Validate("pathspec", p); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid pathspec")
		}
		args = append(args, p)
	}

	_, err := c.run(ctx, repoPath, "add", args...)
	return err
}

// UnstagePaths resets the index entries for the given paths back to HEAD.
func (c *Client) UnstagePaths(ctx context.Context, repoPath string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	args := []string{"reset", "HEAD", "--"}
	for _, p := range paths {
		if err := c.builder.Validate("pathspec", p); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid pathspec")
		}
		args = append(args, p)
	}

	_, err := c.run(ctx, repoPath, "reset", args...)
	return err
}

// CheckoutPathsFromIndex restores on-disk content for paths from the index.
// This is a no-op or error for paths with no index entry, which is why
// discard runs the reset step first for files with staged changes.
func (c *Client) CheckoutPathsFromIndex(ctx context.Context, repoPath string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	args := []string{"checkout-index", "-f", "-u", "--"}
	for _, p := range paths {
		if err := c.builder.Validate("pathspec", p); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid pathspec")
		}
		args = append(args, p)
	}

	_, err := c.run(ctx, repoPath, "checkout-index", args...)
	return err
}

// CreateCommit commits the staged changes with the given summary, body, and
// co-author trailers, and returns the new commit SHA.
func (c *Client) CreateCommit(ctx context.Context, repoPath, summary, body string, coAuthors []CommitIdentity) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "commit summary cannot be empty")
	}

	message := summary
	if body != "" {
		message += "\n\n" + body
	}
	if len(coAuthors) > 0 {
		message += "\n\n" + strings.Join(FormatCoAuthorTrailers(coAuthors), "\n")
	}

	if _, err := c.run(ctx, repoPath, "commit", "commit", "-m", message); err != nil {
		return "", err
	}

	return c.ResolveRef(ctx, repoPath, "HEAD")
}
