package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/grovetools/reposync/cli"
	"github.com/grovetools/reposync/cmd"
)

func main() {
	// Optional .env for GITHUB_TOKEN; absence is fine.
	_ = godotenv.Load()

	rootCmd := cli.NewStandardCommand(
		"reposync",
		"Synchronize and observe the state of local git working copies",
	)

	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewBranchesCmd())
	rootCmd.AddCommand(cmd.NewLogCmd())
	rootCmd.AddCommand(cmd.NewPRsCmd())
	rootCmd.AddCommand(cmd.NewFetchCmd())
	rootCmd.AddCommand(cmd.NewPushCmd())
	rootCmd.AddCommand(cmd.NewPullCmd())
	rootCmd.AddCommand(cmd.NewWatchCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
