package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/git"
)

// NewBranchesCmd creates the `branches` command
func NewBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches [path]",
		Short: "List branches with upstream and publish state",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)

		s, manager, err := setupRepo(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}
		snap := manager.Store().Get(s.Path())

		if cli.GetOptions(cmd).JSONOutput {
			data, err := json.MarshalIndent(snap.Branches, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		current := ""
		if snap.Tip.Kind == git.TipValid {
			current = snap.Tip.Branch.Name
		}

		for _, b := range snap.Branches {
			marker := " "
			if b.Name == current {
				marker = "*"
			}
			annotations := ""
			if snap.DefaultBranch != nil && b.Name == snap.DefaultBranch.Name {
				annotations += " (default)"
			}
			if b.NeedsPublish() {
				annotations += " (unpublished)"
			}
			fmt.Printf("%s %s%s\n", marker, b.Name, annotations)
		}

		if len(snap.RecentBranches) > 0 {
			fmt.Println("\nRecent:")
			for _, b := range snap.RecentBranches {
				fmt.Printf("  %s\n", b.Name)
			}
		}
		return nil
	}

	return cmd
}
