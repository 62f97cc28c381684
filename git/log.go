package git

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Log format: %x1f separates fields within a commit, %x1e separates commits.
// The trailers block comes last so embedded newlines stay inside one field.
const logFormat = "%H%x1f%s%x1f%b%x1f%an%x1f%ae%x1f%aI%x1f%cn%x1f%ce%x1f%cI%x1f%P%x1f%(trailers:unfold,only=true)%x1e"

// Commits returns up to limit commits reachable from revisionRange, newest
// first. revisionRange may be a single ref ("HEAD"), an exclusion range
// ("abc123..HEAD"), or a ref with ancestry suffix ("abc123^").
func (c *Client) Commits(ctx context.Context, repoPath, revisionRange string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=" + logFormat}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	args = append(args, revisionRange, "--")

	result, err := c.run(ctx, repoPath, "log", args...)
	if err != nil {
		return nil, err
	}

	return parseCommits(result.Stdout), nil
}

// CommitSHAs returns only the SHAs for a revision range, cheapest form of
// history listing.
func (c *Client) CommitSHAs(ctx context.Context, repoPath, revisionRange string, limit int) ([]string, error) {
	args := []string{"rev-list"}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	args = append(args, revisionRange, "--")

	out, err := c.output(ctx, repoPath, "rev-list", args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// LookupCommit fetches a single commit's metadata by SHA.
func (c *Client) LookupCommit(ctx context.Context, repoPath, sha string) (*Commit, error) {
	commits, err := c.Commits(ctx, repoPath, sha, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	return &commits[0], nil
}

func parseCommits(output string) []Commit {
	var commits []Commit

	for _, record := range strings.Split(output, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.Split(record, "\x1f")
		if len(fields) < 11 {
			continue
		}

		commit := Commit{
			SHA:     fields[0],
			Summary: fields[1],
			Body:    strings.TrimRight(fields[2], "\n"),
			Author: CommitIdentity{
				Name:  fields[3],
				Email: fields[4],
				Date:  parseISODate(fields[5]),
			},
			Committer: CommitIdentity{
				Name:  fields[6],
				Email: fields[7],
				Date:  parseISODate(fields[8]),
			},
		}

		if parents := strings.TrimSpace(fields[9]); parents != "" {
			commit.ParentSHAs = strings.Split(parents, " ")
		}

		commit.Trailers = ParseTrailers(fields[10])
		commit.CoAuthors = CoAuthorsFromTrailers(commit.Trailers)

		commits = append(commits, commit)
	}

	return commits
}

func parseISODate(value string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}
