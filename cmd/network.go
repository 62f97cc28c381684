package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
)

// NewFetchCmd creates the `fetch` command
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [path]",
		Short: "Fetch from the repository's remotes and fast-forward eligible branches",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		s, _, err := setupRepo(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}

		reporter := cli.NewProgressReporter()
		s.OnProgress(reporter.Update)
		if err := s.Fetch(context.Background(), false); err != nil {
			return handler.Handle(err)
		}
		reporter.Done()
		return nil
	}

	return cmd
}

// NewPushCmd creates the `push` command
func NewPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push [path]",
		Short: "Push the current branch to its remote",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		s, _, err := setupRepo(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}

		reporter := cli.NewProgressReporter()
		s.OnProgress(reporter.Update)
		needsPublish, err := s.Push(context.Background())
		if err != nil {
			return handler.Handle(err)
		}
		if needsPublish {
			fmt.Println("No remote configured; add one to publish this branch.")
			return nil
		}
		reporter.Done()
		return nil
	}

	return cmd
}

// NewPullCmd creates the `pull` command
func NewPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [path]",
		Short: "Pull the current branch and reconcile cached history",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		s, _, err := setupRepo(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}

		reporter := cli.NewProgressReporter()
		s.OnProgress(reporter.Update)
		if err := s.Pull(context.Background()); err != nil {
			return handler.Handle(err)
		}
		reporter.Done()
		return nil
	}

	return cmd
}
