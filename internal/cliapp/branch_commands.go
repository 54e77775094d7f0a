package cliapp

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/colors"
	"github.com/mhalvorsen/anvilvcs/internal/vcserr"
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a branch at the current commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.CreateBranch(args[0]); err != nil {
			return fmt.Errorf("anvil: branch: %w", err)
		}
		return nil
	},
}

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "List branch names and the current HEAD",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		branches, err := r.Branches()
		if err != nil {
			return fmt.Errorf("anvil: heads: %w", err)
		}
		current, detached, err := r.HeadStatus()
		if err != nil {
			return fmt.Errorf("anvil: heads: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, b := range branches {
			marker := "  "
			if !detached && b == current {
				marker = "* "
			}
			fmt.Fprintf(out, "%s%s\n", marker, b)
		}
		if detached {
			fmt.Fprintln(out, "* (detached HEAD)")
		}
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Switch the working tree and HEAD to a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Checkout(args[0]); err != nil {
			return fmt.Errorf("anvil: checkout: %w", err)
		}
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <other-branch>",
	Short: "Three-way merge another branch into the current branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		hash, _, err := r.Merge(args[0])
		if err != nil {
			var conflictErr *vcserr.MergeConflictError
			if errors.As(err, &conflictErr) {
				for _, c := range conflictErr.Conflicts {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s)\n", colors.ErrorText("conflict:"), c.Path, c.Kind)
				}
			}
			return fmt.Errorf("anvil: merge: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
