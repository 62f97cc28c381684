package git

import (
	"context"
	"strings"

	"github.com/grovetools/reposync/command"
	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/logging"
	"github.com/sirupsen/logrus"
)

// Client executes git subcommands against working directories. All methods
// take a context and the repository path; the Client itself is stateless and
// safe for concurrent use across repositories.
type Client struct {
	builder *command.SafeBuilder
	logger  *logrus.Entry
}

// NewClient creates a Client backed by the real command executor.
func NewClient() *Client {
	return NewClientWithExecutor(&command.RealExecutor{})
}

// NewClientWithExecutor creates a Client with a custom executor, used by
// tests to count or fake git invocations.
func NewClientWithExecutor(exec command.Executor) *Client {
	return &Client{
		builder: command.NewSafeBuilderWithExecutor(exec),
		logger:  logging.NewLogger("git"),
	}
}

// run executes git with the given args in repoPath and classifies failures.
// operation names the logical operation for error context and logging.
func (c *Client) run(ctx context.Context, repoPath, operation string, args ...string) (*command.Result, error) {
	cmd, err := c.builder.Build(ctx, "git", args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "build git command")
	}

	result, err := cmd.WithDir(repoPath).Run()
	if err != nil {
		return nil, errors.CommandFailed("git "+strings.Join(args, " "), err).
			WithDetail("path", repoPath).
			WithDetail("operation", operation)
	}

	if syncErr := classifyResult(repoPath, operation, result); syncErr != nil {
		c.logger.WithFields(logrus.Fields{
			"path":      repoPath,
			"operation": operation,
			"exitCode":  result.ExitCode,
		}).Debug("git invocation failed")
		return result, syncErr
	}

	return result, nil
}

// output runs git and returns trimmed stdout.
func (c *Client) output(ctx context.Context, repoPath, operation string, args ...string) (string, error) {
	result, err := c.run(ctx, repoPath, operation, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// IsRepository checks whether path is inside a git repository.
func (c *Client) IsRepository(ctx context.Context, path string) bool {
	_, err := c.run(ctx, path, "rev-parse", "rev-parse", "--git-dir")
	return err == nil
}

// ResolveRef resolves a ref to its full commit SHA.
func (c *Client) ResolveRef(ctx context.Context, repoPath, ref string) (string, error) {
	if err := c.builder.Validate("gitRef", ref); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ref")
	}
	return c.output(ctx, repoPath, "rev-parse", "rev-parse", "--verify", ref)
}
