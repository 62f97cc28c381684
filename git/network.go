package git

import (
	"context"

	"github.com/grovetools/reposync/errors"
)

// Fetch updates remote-tracking refs from the named remote.
func (c *Client) Fetch(ctx context.Context, repoPath, remote string) error {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote")
	}

	_, err := c.run(ctx, repoPath, "fetch", "fetch", "--prune", remote)
	return err
}

// Push pushes branch to remote. setUpstream establishes the tracking ref for
// a branch being published for the first time.
func (c *Client) Push(ctx context.Context, repoPath, remote, branch string, setUpstream bool) error {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote")
	}
	if err := c.builder.Validate("gitRef", branch); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch")
	}

	args := []string{"push", remote, branch}
	if setUpstream {
		args = []string{"push", "--set-upstream", remote, branch}
	}

	_, err := c.run(ctx, repoPath, "push", args...)
	return err
}

// Pull fetches from remote and merges the current branch's upstream.
func (c *Client) Pull(ctx context.Context, repoPath, remote string) error {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote")
	}

	_, err := c.run(ctx, repoPath, "pull", "pull", remote)
	return err
}
