package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/config"
	"github.com/grovetools/reposync/git"
	reposync "github.com/grovetools/reposync/internal/sync"
	"github.com/grovetools/reposync/state"
)

// resolveRepoPath returns the repository path from the first positional
// argument, defaulting to the current directory.
func resolveRepoPath(args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	return os.Getwd()
}

// setupManager builds the shared plumbing for a command: config, settings
// store, git client, and the repository manager.
func setupManager(cmd *cobra.Command) (*reposync.Manager, *config.Config, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	settingsPath, err := state.DefaultPath()
	if err != nil {
		return nil, nil, err
	}
	settings := state.NewStore(settingsPath)

	manager := reposync.NewManager(git.NewClient(), cfg, settings)
	return manager, cfg, nil
}

// setupRepo additionally registers the target repository and returns its
// synchronizer.
func setupRepo(cmd *cobra.Command, args []string) (*reposync.Synchronizer, *reposync.Manager, error) {
	manager, _, err := setupManager(cmd)
	if err != nil {
		return nil, nil, err
	}
	repoPath, err := resolveRepoPath(args)
	if err != nil {
		return nil, nil, err
	}
	s, err := manager.Add(context.Background(), repoPath)
	if err != nil {
		return nil, nil, err
	}
	return s, manager, nil
}
