package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/git"
	gh "github.com/grovetools/reposync/github"
)

// NewPRsCmd creates the `prs` command
func NewPRsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prs [path]",
		Short: "List open pull requests for the origin remote",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)
		ctx := context.Background()

		repoPath, err := resolveRepoPath(args)
		if err != nil {
			return handler.Handle(err)
		}

		remoteURL, err := git.NewClient().RemoteURL(ctx, repoPath, "origin")
		if err != nil {
			return handler.Handle(err)
		}
		owner, name, ok := gh.ParseRemoteURL(remoteURL)
		if !ok {
			return fmt.Errorf("origin %q is not a GitHub remote", remoteURL)
		}

		client := gh.NewClient(os.Getenv("GITHUB_TOKEN"))
		prs, err := gh.ListOpenPullRequests(ctx, client, owner, name)
		if err != nil {
			return handler.Handle(err)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(prs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(prs) == 0 {
			fmt.Printf("No open pull requests for %s/%s\n", owner, name)
			return nil
		}
		for _, pr := range prs {
			draft := ""
			if pr.Draft {
				draft = " (draft)"
			}
			fmt.Printf("#%-5d %s%s\n       %s -> %s by %s\n", pr.Number, pr.Title, draft, pr.HeadBranch, pr.BaseBranch, pr.Author)
		}
		return nil
	}

	return cmd
}
