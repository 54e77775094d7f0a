package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhalvorsen/anvilvcs/internal/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only live dashboard over the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("anvil: get working directory: %w", err)
		}

		s, err := dashboard.NewServer(root)
		if err != nil {
			return fmt.Errorf("anvil: serve: %w", err)
		}
		defer s.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "dashboard serving %s on %s\n", root, serveAddr)
		if err := s.ListenAndServe(serveAddr); err != nil {
			return fmt.Errorf("anvil: serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7423", "address to listen on")
}
