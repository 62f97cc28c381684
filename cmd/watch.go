package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/git"
	reposync "github.com/grovetools/reposync/internal/sync"
	"github.com/grovetools/reposync/internal/sync/store"
)

// NewWatchCmd creates the `watch` command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Continuously synchronize one or more repositories",
		Long: `Tracks the given repositories (default: the current directory), refreshing
state on filesystem changes and fetching in the background. Snapshot updates
are printed as they happen until interrupted.`,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		handler := cli.NewErrorHandler(cli.GetOptions(cmd).Verbose)
		logger := cli.GetLogger(cmd)

		manager, _, err := setupManager(cmd)
		if err != nil {
			return handler.Handle(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		watcher, err := reposync.NewWatcher(manager)
		if err != nil {
			return handler.Handle(err)
		}
		defer watcher.Close()

		paths := args
		if len(paths) == 0 {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			paths = []string{cwd}
		}

		token := os.Getenv("GITHUB_TOKEN")
		for _, path := range paths {
			repoPath, err := filepath.Abs(path)
			if err != nil {
				return handler.Handle(err)
			}
			s, err := manager.Add(ctx, repoPath)
			if err != nil {
				return handler.Handle(err)
			}
			s.OnError(func(serr *errors.SyncError) {
				if serr.Background {
					logger.WithField("repo", repoPath).Debugf("Background failure: %v", serr)
					return
				}
				logger.WithField("repo", repoPath).Warnf("Operation failed: %v", serr)
			})
			if err := watcher.Watch(repoPath); err != nil {
				logger.WithError(err).Warnf("Cannot watch %s", repoPath)
			}
			if err := manager.EnrichFromGitHub(ctx, repoPath, token); err != nil {
				logger.WithError(err).Debug("GitHub enrichment skipped")
			}
		}

		go watcher.Run(ctx)
		go manager.RunBackgroundFetch(ctx)

		updates := manager.Store().Subscribe()
		defer manager.Store().Unsubscribe(updates)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		fmt.Printf("Watching %d repositories. Press Ctrl-C to stop.\n", len(paths))
		for {
			select {
			case <-sigs:
				return nil
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				if u.Snapshot == nil {
					fmt.Printf("%s: repository removed\n", u.RepoPath)
					continue
				}
				printUpdate(u.RepoPath, u.Snapshot)
			}
		}
	}

	return cmd
}

func printUpdate(repoPath string, snap *store.Snapshot) {
	switch snap.Tip.Kind {
	case git.TipValid:
		status := fmt.Sprintf("on %s", snap.Tip.Branch.Name)
		if snap.AheadBehind != nil {
			status += fmt.Sprintf(" (+%d -%d)", snap.AheadBehind.Ahead, snap.AheadBehind.Behind)
		}
		fmt.Printf("%s: %s, %d changed file(s)\n", repoPath, status, len(snap.WorkingDirectory.Files))
	case git.TipDetached:
		fmt.Printf("%s: detached at %s\n", repoPath, shortSHA(snap.Tip.SHA))
	case git.TipUnborn:
		fmt.Printf("%s: unborn branch %s\n", repoPath, snap.Tip.Ref)
	default:
		fmt.Printf("%s: state unknown\n", repoPath)
	}
}
