package git

import (
	"context"

	"github.com/grovetools/reposync/errors"
)

// Checkout switches the working directory to the named branch.
func (c *Client) Checkout(ctx context.Context, repoPath, branch string) error {
	if err := c.builder.Validate("gitRef", branch); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid branch")
	}

	_, err := c.run(ctx, repoPath, "checkout", "checkout", branch)
	return err
}

// FastForwardRef moves a local branch ref to the upstream tip without
// touching the working directory. Valid only for branches that are not
// checked out; the ref pointer moves, nothing else. The oldSHA guard makes
// the update atomic: git refuses if the ref moved since we looked.
func (c *Client) FastForwardRef(ctx context.Context, repoPath, branch, newSHA, oldSHA string) error {
	for _, ref := range []string{branch, newSHA, oldSHA} {
		if err := c.builder.Validate("gitRef", ref); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ref")
		}
	}

	_, err := c.run(ctx, repoPath, "update-ref",
		"update-ref", "refs/heads/"+branch, newSHA, oldSHA)
	return err
}

// CurrentUpstreamRemote returns the remote name of the current branch's
// upstream, or empty when no upstream is configured.
func (c *Client) CurrentUpstreamRemote(ctx context.Context, repoPath string) (string, error) {
	out, err := c.output(ctx, repoPath, "upstream-remote",
		"rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	if err != nil {
		if code := errors.GetCode(err); code == errors.ErrCodeCommandFailed || code == errors.ErrCodeNoSuchRef {
			return "", nil
		}
		return "", err
	}

	// Output is "<remote>/<branch>".
	for i := 0; i < len(out); i++ {
		if out[i] == '/' {
			return out[:i], nil
		}
	}
	return "", nil
}
