package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/sync"
)

const defaultSyncBranch = "master"

var pullCmd = &cobra.Command{
	Use:   "pull <remote-path>",
	Short: "Fast-forward the local branch from a remote .my-dvcs directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(args[0], sync.Pull)
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <remote-path>",
	Short: "Fast-forward a remote .my-dvcs directory from the local branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(args[0], sync.Push)
	},
}

func runSync(remotePath string, op func(local, remote *sync.Endpoint, branchName string) error) error {
	localRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("anvil: get working directory: %w", err)
	}

	local, err := sync.Open(localRoot)
	if err != nil {
		return fmt.Errorf("anvil: %w", err)
	}
	defer local.Close()

	remote, err := sync.Open(remotePath)
	if err != nil {
		return fmt.Errorf("anvil: %w", err)
	}
	defer remote.Close()

	branchName, detached, err := local.CurrentBranch()
	if err != nil {
		return fmt.Errorf("anvil: %w", err)
	}
	if detached || branchName == "" {
		branchName = defaultSyncBranch
	}

	if err := op(local, remote, branchName); err != nil {
		return fmt.Errorf("anvil: %w", err)
	}
	return nil
}
