package cliapp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a repository metadata directory at the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("anvil: get working directory: %w", err)
		}
		r, err := repo.Init(root)
		if err != nil {
			return fmt.Errorf("anvil: init: %w", err)
		}
		defer r.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "initialized empty repository in %s\n", filepath.Join(root, repo.MetaDirName))
		return nil
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone <dst>",
	Short: "Recursively copy the working tree and metadata to <dst>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("anvil: get working directory: %w", err)
		}
		dst := args[0]
		if _, err := os.Stat(filepath.Join(src, repo.MetaDirName)); err != nil {
			return fmt.Errorf("anvil: clone: %s is not a repository", src)
		}
		if err := copyTree(src, dst); err != nil {
			return fmt.Errorf("anvil: clone: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s\n", src, dst)
		return nil
	},
}

// copyTree recursively copies every file under src to dst, preserving
// relative structure, including the .my-dvcs metadata directory.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Stage a file for the next commit, or \"*\" to stage everything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if args[0] == "*" {
			files, err := r.WorkingFiles()
			if err != nil {
				return fmt.Errorf("anvil: add: %w", err)
			}
			for _, f := range files {
				if err := r.Add(f); err != nil {
					return fmt.Errorf("anvil: add %s: %w", f, err)
				}
			}
			return nil
		}

		if err := r.Add(args[0]); err != nil {
			return fmt.Errorf("anvil: add: %w", err)
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Unstage a file, or \"*\" to clear the staging area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		if args[0] == "*" {
			if err := r.ClearStaged(); err != nil {
				return fmt.Errorf("anvil: remove: %w", err)
			}
			return nil
		}

		if err := r.Remove(args[0]); err != nil {
			return fmt.Errorf("anvil: remove: %w", err)
		}
		return nil
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <message>",
	Short: "Commit staged files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		defer r.Close()

		hash, err := r.Commit(args[0])
		if err != nil {
			return fmt.Errorf("anvil: commit: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
