package git

import (
	"context"
	"strings"
)

// branchFormat is the for-each-ref format used to list branches in one
// invocation. Field separator is %00 to survive arbitrary ref names.
const branchFormat = "%(refname)%00%(refname:short)%00%(objectname)%00%(upstream:short)"

// Branches lists local and remote branches with their configured upstreams,
// using a single for-each-ref invocation.
func (c *Client) Branches(ctx context.Context, repoPath string) ([]Branch, error) {
	result, err := c.run(ctx, repoPath, "for-each-ref",
		"for-each-ref", "--format="+branchFormat, "refs/heads", "refs/remotes")
	if err != nil {
		return nil, err
	}

	var branches []Branch
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\x00")
		if len(fields) < 4 {
			continue
		}

		refname, short, sha, upstream := fields[0], fields[1], fields[2], fields[3]

		branch := Branch{
			Name:     short,
			TipSHA:   sha,
			Upstream: upstream,
		}

		switch {
		case strings.HasPrefix(refname, "refs/heads/"):
			branch.Type = BranchLocal
		case strings.HasPrefix(refname, "refs/remotes/"):
			// Symbolic remote HEAD entries (origin/HEAD) are not branches.
			if strings.HasSuffix(short, "/HEAD") {
				continue
			}
			branch.Type = BranchRemote
			branch.Upstream = ""
		default:
			continue
		}

		branches = append(branches, branch)
	}

	return branches, nil
}

// Remotes returns the configured remote names, in git's listing order.
func (c *Client) Remotes(ctx context.Context, repoPath string) ([]string, error) {
	out, err := c.output(ctx, repoPath, "remote", "remote")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// RemoteURL returns the URL for the named remote, or empty if unset.
func (c *Client) RemoteURL(ctx context.Context, repoPath, remote string) (string, error) {
	if err := c.builder.Validate("remoteName", remote); err != nil {
		return "", err
	}
	out, err := c.output(ctx, repoPath, "remote-url", "config", "--get", "remote."+remote+".url")
	if err != nil {
		// Unset config keys exit 1; treat as absent rather than failed.
		return "", nil
	}
	return out, nil
}
