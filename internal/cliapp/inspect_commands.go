package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/colors"
	"github.com/mhalvorsen/anvilvcs/internal/inspect"
	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

// colorizeChange renders one Change's type label the way the teacher's
// cli/status.go colors staged/modified/deleted lines.
func colorizeChange(t inspect.ChangeType) string {
	switch t {
	case inspect.Added:
		return colors.Added("added")
	case inspect.Modified:
		return colors.Modified("modified")
	case inspect.Removed:
		return colors.Deleted("removed")
	default:
		return t.String()
	}
}

var diffCmd = &cobra.Command{
	Use:   "diff <commit1> <commit2>",
	Short: "Compare two commits' trees path by path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := objhash.ParseLiteral(args[0])
		if err != nil {
			return fmt.Errorf("anvil: diff: %w", err)
		}
		to, err := objhash.ParseLiteral(args[1])
		if err != nil {
			return fmt.Errorf("anvil: diff: %w", err)
		}

		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		changes, err := r.Diff(from, to)
		if err != nil {
			return fmt.Errorf("anvil: diff: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, c := range changes {
			fmt.Fprintf(out, "%s\t%s\n", colorizeChange(c.Type), c.Path)
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <commit-hash> <path>",
	Short: "Print a path's content as of a given commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := objhash.ParseLiteral(args[0])
		if err != nil {
			return fmt.Errorf("anvil: cat: %w", err)
		}

		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		data, err := r.CatAt(hash, args[1])
		if err != nil {
			return fmt.Errorf("anvil: cat: %w", err)
		}
		_, werr := cmd.OutOrStdout().Write(data)
		return werr
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history reachable from HEAD, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		entries, err := r.Log()
		if err != nil {
			return fmt.Errorf("anvil: log: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s\n", colors.Yellow(fmt.Sprintf("commit %s", e.Hash)))
			fmt.Fprintf(out, "Author: %s\n", e.Commit.Author)
			fmt.Fprintf(out, "Date:   %s\n", e.Commit.TimestampText())
			fmt.Fprintf(out, "\n    %s\n\n", e.Commit.Message)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show working-tree changes against the last commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		s, err := r.Status()
		if err != nil {
			return fmt.Errorf("anvil: status: %w", err)
		}

		out := cmd.OutOrStdout()
		if s.Clean() {
			fmt.Fprintln(out, colors.SuccessText("working tree clean"))
			return nil
		}
		for _, c := range s.Changes {
			fmt.Fprintf(out, "%s\t%s\n", colorizeChange(c.Type), c.Path)
		}
		return nil
	},
}
