package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/git"
)

// NewLogCmd creates the `log` command
func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [path]",
		Short: "Show the cached commit history",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.Flags().Int("batches", 1, "Number of history batches to load")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)
		ctx := context.Background()

		s, manager, err := setupRepo(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}

		batches, _ := cmd.Flags().GetInt("batches")
		for i := 1; i < batches; i++ {
			if err := s.LoadNextHistoryBatch(ctx); err != nil {
				return handler.Handle(err)
			}
		}

		snap := manager.Store().Get(s.Path())
		commits := make([]*git.Commit, 0, len(snap.History))
		for _, sha := range snap.History {
			c, err := s.Commit(ctx, sha)
			if err != nil {
				return handler.Handle(err)
			}
			commits = append(commits, c)
		}

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(commits, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		for _, c := range commits {
			fmt.Printf("%s %s\n", shortSHA(c.SHA), c.Summary)
			fmt.Printf("         %s <%s> %s\n", c.Author.Name, c.Author.Email, c.Author.Date.Format("2006-01-02 15:04"))
			for _, co := range c.CoAuthors {
				fmt.Printf("         co-authored-by %s <%s>\n", co.Name, co.Email)
			}
		}
		return nil
	}

	return cmd
}
