// Package github enriches repository state from the GitHub API. Everything
// here is optional: without a token (or for non-GitHub remotes) the
// synchronizer runs on git truth alone.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v77/github"
)

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client, which works for public repositories within the
// anonymous rate limits.
func NewClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	return github.NewClient(nil).WithAuthToken(token)
}

// RepoMetadata is the subset of repository metadata the synchronizer
// consumes.
type RepoMetadata struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	IsFork        bool   `json:"is_fork"`
	ParentOwner   string `json:"parent_owner,omitempty"`
	ParentName    string `json:"parent_name,omitempty"`
	HTMLURL       string `json:"html_url"`
}

// PullRequest is a trimmed view of an open pull request.
type PullRequest struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	HeadBranch string    `json:"head_branch"`
	BaseBranch string    `json:"base_branch"`
	Draft      bool      `json:"draft"`
	UpdatedAt  time.Time `json:"updated_at"`
	HTMLURL    string    `json:"html_url"`
}

// GetRepoMetadata fetches repository metadata, including the configured
// default branch and the fork parent when one exists.
func GetRepoMetadata(ctx context.Context, client *github.Client, owner, name string) (*RepoMetadata, error) {
	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, handleAPIError(err, "failed to get repository")
	}

	meta := &RepoMetadata{
		Owner:         owner,
		Name:          name,
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
		IsFork:        repo.GetFork(),
		HTMLURL:       repo.GetHTMLURL(),
	}

	if parent := repo.GetParent(); parent != nil {
		if parentOwner := parent.GetOwner(); parentOwner != nil {
			meta.ParentOwner = parentOwner.GetLogin()
		}
		meta.ParentName = parent.GetName()
	}
	return meta, nil
}

// ListOpenPullRequests fetches all open pull requests with pagination.
func ListOpenPullRequests(ctx context.Context, client *github.Client, owner, name string) ([]PullRequest, error) {
	var all []PullRequest

	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := client.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, handleAPIError(err, "failed to list pull requests")
		}

		for _, pr := range prs {
			if pr == nil {
				continue
			}
			parsed := PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				Draft:     pr.GetDraft(),
				UpdatedAt: pr.GetUpdatedAt().Time,
				HTMLURL:   pr.GetHTMLURL(),
			}
			if user := pr.GetUser(); user != nil {
				parsed.Author = user.GetLogin()
			}
			if head := pr.GetHead(); head != nil {
				parsed.HeadBranch = head.GetRef()
			}
			if base := pr.GetBase(); base != nil {
				parsed.BaseBranch = base.GetRef()
			}
			all = append(all, parsed)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ParseRemoteURL extracts owner and repository name from a GitHub remote
// URL, in either the SSH or HTTPS form. Non-GitHub remotes return ok=false.
func ParseRemoteURL(remoteURL string) (owner, name string, ok bool) {
	var path string
	switch {
	case strings.HasPrefix(remoteURL, "git@github.com:"):
		path = strings.TrimPrefix(remoteURL, "git@github.com:")
	case strings.HasPrefix(remoteURL, "ssh://git@github.com/"):
		path = strings.TrimPrefix(remoteURL, "ssh://git@github.com/")
	case strings.HasPrefix(remoteURL, "https://github.com/"):
		path = strings.TrimPrefix(remoteURL, "https://github.com/")
	case strings.HasPrefix(remoteURL, "http://github.com/"):
		path = strings.TrimPrefix(remoteURL, "http://github.com/")
	default:
		return "", "", false
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// handleAPIError wraps API errors with context and detects rate limiting
func handleAPIError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: hit primary rate limit (used %d of %d, resets at %v): %w",
			msg, rateLimitErr.Rate.Used, rateLimitErr.Rate.Limit, rateLimitErr.Rate.Reset.Time, err)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: hit secondary rate limit (retry after %v): %w",
			msg, abuseErr.GetRetryAfter(), err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
