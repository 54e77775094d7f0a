// Package cliapp wires the cobra command tree spec.md §6's command
// table describes onto internal/repo, internal/sync, and
// internal/dashboard. Every RunE returns an error rather than calling
// os.Exit directly; cmd/anvil's main.go is the only place that turns a
// returned error into a process exit code, matching the teacher's
// cli.Execute() / os.Exit(1) split between library and binary.
package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/repo"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "anvil",
	Short:         "anvil is a content-addressed version control system",
	Long:          `anvil tracks a working directory's history as content-addressed blobs, trees, and commits under .my-dvcs/.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the command tree and reports whether it succeeded.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(headsCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(serveCmd)
}

// openRepo opens the repository rooted at the current working
// directory, the same cwd-determines-repo rule every command follows.
func openRepo() (*repo.Repository, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("anvil: get working directory: %w", err)
	}
	r, err := repo.Open(root)
	if err != nil {
		return nil, fmt.Errorf("anvil: %w", err)
	}
	return r, nil
}
