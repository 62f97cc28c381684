package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/git"
)

// NewStatusCmd creates the `status` command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show the synchronized state of a repository",
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
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		switch snap.Tip.Kind {
		case git.TipValid:
			fmt.Printf("On branch %s\n", snap.Tip.Branch.Name)
			if snap.Tip.Branch.NeedsPublish() {
				fmt.Println("Branch has not been published")
			}
		case git.TipDetached:
			fmt.Printf("HEAD detached at %s\n", shortSHA(snap.Tip.SHA))
		case git.TipUnborn:
			fmt.Printf("On unborn branch %s\n", snap.Tip.Ref)
		default:
			fmt.Println("Repository state unknown")
		}

		if snap.AheadBehind != nil {
			fmt.Printf("Ahead %d, behind %d of upstream\n", snap.AheadBehind.Ahead, snap.AheadBehind.Behind)
		}

		files := snap.WorkingDirectory.Files
		if len(files) == 0 {
			fmt.Println("Working directory clean")
			return nil
		}
		fmt.Printf("\n%d changed file(s):\n", len(files))
		for _, f := range files {
			if f.OldPath != "" {
				fmt.Printf("  %-10s %s -> %s\n", f.Status, f.OldPath, f.Path)
				continue
			}
			fmt.Printf("  %-10s %s\n", f.Status, f.Path)
		}
		return nil
	}

	return cmd
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
