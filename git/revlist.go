package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/grovetools/reposync/errors"
)

// AheadBehind computes the commit counts reachable from one ref but not the
// other, both directions, with a single rev-list invocation. Callers should
// key results by SHA pair: SHAs are immutable identifiers, so a cached result
// for a SHA pair never goes stale.
func (c *Client) AheadBehind(ctx context.Context, repoPath, from, to string) (*AheadBehind, error) {
	for _, ref := range []string{from, to} {
		if err := c.builder.Validate("gitRef", ref); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ref")
		}
	}

	out, err := c.output(ctx, repoPath, "rev-list",
		"rev-list", "--left-right", "--count", from+"..."+to, "--")
	if err != nil {
		return nil, err
	}

	// Output is "<ahead>\t<behind>" relative to the left ref.
	parts := strings.Fields(out)
	if len(parts) != 2 {
		return nil, errors.New(errors.ErrCodeCommandFailed, "unexpected rev-list --count output").
			WithDetail("output", out)
	}

	ahead, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCommandFailed, "parse ahead count")
	}
	behind, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCommandFailed, "parse behind count")
	}

	return &AheadBehind{Ahead: ahead, Behind: behind}, nil
}

// MergeBase returns the most recent common ancestor of two refs, or empty if
// the refs share no history.
func (c *Client) MergeBase(ctx context.Context, repoPath, refA, refB string) (string, error) {
	for _, ref := range []string{refA, refB} {
		if err := c.builder.Validate("gitRef", ref); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ref")
		}
	}

	result, err := c.run(ctx, repoPath, "merge-base", "merge-base", refA, refB)
	if err != nil {
		// Exit 1 with empty output means no common ancestor.
		if errors.GetCode(err) == errors.ErrCodeCommandFailed {
			return "", nil
		}
		return "", err
	}

	return strings.TrimSpace(result.Stdout), nil
}
